package models

import "time"

// Follow is a directed follow edge. One row backs both A.following and
// B.followers, so the two views can never disagree.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
