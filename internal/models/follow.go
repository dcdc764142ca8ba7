package models

// Follow is a directed edge: User follows Author.
// The pair is unique and a user can never follow themselves; both rules are
// table constraints so they hold for every writer.
type Follow struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;index;uniqueIndex:unique_follow;check:no_follow_yourself,user_id <> author_id"`
	User     User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID uint `json:"author_id" gorm:"not null;index;uniqueIndex:unique_follow"`
	Author   User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
	}
}
