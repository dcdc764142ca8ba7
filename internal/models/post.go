package models

import "time"

// Post is a short text entry owned by its author.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty" gorm:"size:255"` // Storage path, e.g. posts/photo.gif
}

// Excerpt returns the first 15 characters of the text.
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) <= 15 {
		return p.Text
	}
	return string(r[:15])
}

// PostForm is the payload of the create and edit post forms. The image
// travels as a multipart file next to it.
type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,numeric"`
}
