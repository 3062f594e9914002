package course

import "gorm.io/gorm"

// Lesson is an ordered unit of a chapter
type Lesson struct {
	gorm.Model
	ChapterID    uint   `json:"chapter_id" gorm:"index;not null"`
	Title        string `json:"title" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
	ThumbnailKey string `json:"thumbnail_key"`
	VideoKey     string `json:"video_key"`
	Position     int    `json:"position" gorm:"not null"` // 1-based, dense within chapter
}
