package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"           json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Role         string    `gorm:"not null;default:user"          json:"role"`
	Confirmed    bool      `gorm:"not null;default:false"         json:"confirmed"`
	Avatar       string    `gorm:"size:255"                       json:"avatar"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Contact struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"                        json:"id"`
	Name           string     `gorm:"size:50;not null"                                json:"name"`
	LastName       string     `gorm:"size:50;not null"                                json:"last_name"`
	Email          string     `gorm:"size:100;not null;uniqueIndex:uix_contact_owner" json:"email"`
	Phone          string     `gorm:"size:20;not null;uniqueIndex:uix_contact_owner"  json:"phone"`
	BirthDate      *time.Time `json:"birth_date"`
	AdditionalInfo string     `gorm:"size:250"                                        json:"additional_info"`
	UserID         uint       `gorm:"index;not null;uniqueIndex:uix_contact_owner"    json:"user_id"`
}
