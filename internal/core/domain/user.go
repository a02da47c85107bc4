package domain

import "time"

// User represents an operator of the application in the domain.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // bcrypt hash, never serialized
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Used for soft delete
}
