package models

import "time"

// User is an account able to sign in. Admins may manage pesticide registrations.
type User struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username          string     `gorm:"column:username;type:varchar(255);not null;uniqueIndex"`
	Email             string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string     `gorm:"column:password_hash;not null"`
	ResetToken        *string    `gorm:"column:reset_token;index"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires"`
	IsAdmin           bool       `gorm:"column:is_admin;not null;default:false"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "app_user" }

// ResetTokenValid reports whether a reset is in flight and unexpired at now.
func (u *User) ResetTokenValid(now time.Time) bool {
	if u == nil || u.ResetToken == nil || u.ResetTokenExpires == nil {
		return false
	}
	return now.Before(*u.ResetTokenExpires)
}
