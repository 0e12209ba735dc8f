// Package model defines database models
package model

import "time"

type Account struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"size:150" json:"first_name"`
	LastName     string `gorm:"size:150" json:"last_name"`

	// IsActive gates login, IsActivated records that the e-mail link was
	// followed at least once and never goes back to false
	IsActive     bool `gorm:"not null" json:"is_active"`
	IsActivated  bool `gorm:"not null;index" json:"is_activated"`
	SendMessages bool `gorm:"not null" json:"send_messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Listings []Listing `gorm:"foreignKey:AuthorID" json:"-"`
}
