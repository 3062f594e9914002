package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin  = "ADMIN"
	RoleAuthor = "AUTHOR"
	RoleUser   = "USER"
)

type User struct {
	gorm.Model
	Name            string     `json:"name" gorm:"default:''"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Image           string     `json:"image" gorm:"default:''"`
	Role            string     `json:"role" gorm:"default:'USER'"` // USER, AUTHOR, ADMIN
	IsEmailVerified bool       `json:"is_email_verified" gorm:"default:false"`
	LastLogin       *time.Time `json:"last_login"`
	IsBanned        bool       `json:"is_banned" gorm:"default:false"`
}
