package dto

import "videohub/entities"

type VideoListResponse struct {
	Videos     []entities.Video `json:"videos"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int64            `json:"total_pages"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
