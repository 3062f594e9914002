package course

import "gorm.io/gorm"

const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusArchived  = "Archived"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title            string    `json:"title"`
	Slug             string    `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Description      string    `json:"description" gorm:"type:text"`
	SmallDescription string    `json:"small_description"`
	FileKey          string    `json:"file_key"` // thumbnail object key
	Price            int       `json:"price" gorm:"default:0"`
	Duration         int       `json:"duration" gorm:"default:0"` // duration in hours
	Level            string    `json:"level" gorm:"default:'Beginner'"`
	Category         string    `json:"category"`
	Status           string    `json:"status" gorm:"default:'Draft'"` // Draft, Published, Archived
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	Chapters         []Chapter `json:"chapters,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
