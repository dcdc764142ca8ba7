package models

import "time"

// Comment belongs jointly to a post and its author; removing either removes it
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	Post      Post      `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// CommentForm is the payload of the comment form on the post page
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}
