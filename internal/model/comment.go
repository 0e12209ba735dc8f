package model

import "time"

// Comment authors are free text. Guests fill it in themselves, registered
// accounts get their username
type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"index;not null" json:"listing_id"`
	Author    string    `gorm:"size:30;not null" json:"author"`
	Email     string    `json:"-"`
	Content   string    `gorm:"not null" json:"content"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
