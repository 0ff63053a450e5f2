package entities

import "time"

type Video struct {
	ID        string    `json:"id" gorm:"type:text;primary_key"`
	Title     string    `json:"title" gorm:"type:text;not null"`
	Filename  string    `json:"filename" gorm:"type:text;not null"`
	Original  string    `json:"original" gorm:"type:text;not null"`
	Duration  string    `json:"duration"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}
