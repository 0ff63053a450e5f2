package service

import "errors"

var (
	ErrInvalidContentType  = errors.New("uploaded file is not a video")
	ErrNotFound            = errors.New("not found")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	ErrTranscodeFailed     = errors.New("transcode failed")
)
