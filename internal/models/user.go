package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an author account. Deleting a user removes their posts, comments
// and follow edges through ON DELETE CASCADE foreign keys.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:254"`
	FirstName    string    `json:"first_name" gorm:"size:150"`
	LastName     string    `json:"last_name" gorm:"size:150"`
	PasswordHash string    `json:"-"`
	FirebaseUID  *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the full name when it is known, the username otherwise.
func (u User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// SignupForm is the payload of the registration form
type SignupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Password  string `form:"password" validate:"required,min=8"`
}

// LoginForm is the payload of the login form
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

// SessionClaims are the claims carried by the session cookie
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
