package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a single authored text entry. PubDate is assigned once at creation
// and is immutable afterwards; listings order by pub_date DESC with id DESC as
// the tie-breaker so the order is total.
type Post struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Text    string    `gorm:"type:text;not null" json:"text"`
	PubDate time.Time `gorm:"column:pub_date;index;not null" json:"pub_date"`
	UserID  uint      `gorm:"index;not null" json:"user_id"`
	GroupID *uint     `gorm:"index" json:"group_id"`
	User    User      `json:"author"`
	Group   *Group    `json:"group,omitempty"`
}

// BeforeCreate assigns the publication timestamp when it was not set explicitly.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	return nil
}
