package course

import "gorm.io/gorm"

const (
	EnrollmentPending   = "Pending"
	EnrollmentActive    = "Active"
	EnrollmentCancelled = "Cancelled"
)

// Enrollment tracks a user's enrollment in a course
type Enrollment struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID uint   `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	Amount   int    `json:"amount" gorm:"not null;default:0"`
	Status   string `json:"status" gorm:"default:'Pending'"` // Pending, Active, Cancelled
	Course   Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}
