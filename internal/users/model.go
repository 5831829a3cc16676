package users

import (
	"strings"
	"time"
)

// GuestSubject is the fixed identity-provider subject reserved for guest traffic.
// A user row carrying this subject is seeded during schema migration so guest
// requests resolve to one stable internal user id.
const GuestSubject = "guest-user"

// User maps an identity-provider subject to a local application account.
type User struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FirebaseUID string    `gorm:"column:firebase_uid;size:190;uniqueIndex;not null" json:"firebaseUid"`
	Username    string    `gorm:"column:username;size:190;not null" json:"username"`
	Email       string    `gorm:"column:email;size:320;not null" json:"email"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName exposes the table backing local user accounts.
func (User) TableName() string {
	return "users"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
