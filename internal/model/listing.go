package model

import "time"

type Listing struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	RubricID uint    `gorm:"index;not null" json:"rubric_id"`
	Rubric   *Rubric `json:"rubric,omitempty"`
	Title    string  `gorm:"size:40;not null" json:"title"`
	Content  string  `gorm:"not null" json:"content"`
	Price    float64 `gorm:"not null" json:"price"`
	Contacts string  `gorm:"not null" json:"contacts"`

	// Always the authenticated account that published the listing
	AuthorID string   `gorm:"index;not null" json:"author_id"`
	Author   *Account `json:"-"`

	// Only active listings show up in public views
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images"`
}

type ListingImage struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID   uint   `gorm:"index;not null" json:"-"`
	Key         string `gorm:"uniqueIndex;not null" json:"key"` // Object key in the image store
	Name        string `json:"name"`                            // Name of the uploaded file
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `gorm:"-" json:"url"`
}
