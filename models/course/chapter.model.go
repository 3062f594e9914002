package course

import "gorm.io/gorm"

// Chapter is an ordered section of a course
type Chapter struct {
	gorm.Model
	CourseID uint     `json:"course_id" gorm:"index;not null"`
	Title    string   `json:"title" gorm:"not null"`
	Position int      `json:"position" gorm:"not null"` // 1-based, dense within course
	Lessons  []Lesson `json:"lessons,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
