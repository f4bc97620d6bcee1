package models

import "time"

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:254;uniqueIndex;not null"`
	Username  string `gorm:"size:150;not null"`
	FirstName string `gorm:"size:150"`
	LastName  string `gorm:"size:150"`
	Password  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

// Subscription is a directed follower -> following edge. The pair is the
// primary key and a CHECK keeps self-loops out at the storage layer.
type Subscription struct {
	FollowerID  uint `gorm:"primaryKey;autoIncrement:false;check:chk_no_self_follow,follower_id <> following_id"`
	Follower    User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE;"`
	FollowingID uint `gorm:"primaryKey;autoIncrement:false"`
	Following   User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time
}

func (Subscription) TableName() string { return "subscriptions" }
