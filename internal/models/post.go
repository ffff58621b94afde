package models

import "time"

// Post represents a blog publication in the Inkwell application.
//
// A post is publicly visible only when it is published, its pub date is not
// in the future, and it belongs to a published category. Posts without a
// category never appear in public listings; their author can still see them.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"not null;index" json:"pub_date"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	CategoryID  *uint     `gorm:"index" json:"category_id,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	LocationID  *uint     `json:"location_id,omitempty"`
	Location    *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"location,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PubliclyVisibleAt reports whether the post belongs to the published set at
// the given instant. Matches the published listing query: a nil category
// excludes the post.
func (p *Post) PubliclyVisibleAt(now time.Time) bool {
	return p.IsPublished &&
		!p.PubDate.After(now) &&
		p.Category != nil &&
		p.Category.IsPublished
}
