package domain

// User Model
type User struct {
	ID           uint   `gorm:"primaryKey" json:"userId"`                      // Primary key
	Username     string `gorm:"size:191;uniqueIndex;not null" json:"username"` // Unique username
	Email        string `gorm:"size:191;uniqueIndex;not null" json:"email"`    // Unique email, used as token subject
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`        // Bcrypt hash, never serialized
}

// UserInput carries the writable user fields; Password is plaintext.
type UserInput struct {
	Username string
	Email    string
	Password string
}
