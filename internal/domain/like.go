package domain

import "time"

type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"size:36;index:idx_post_user,unique;not null" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	UserID    string    `gorm:"size:36;index:idx_post_user,unique;not null" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
