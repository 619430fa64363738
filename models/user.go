package models

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Account is the auth provider's row. Password holds a bcrypt hash.
type Account struct {
	Base
	Email    string `gorm:"not null;uniqueIndex"`
	Password string `gorm:"not null"`
	FullName string
	Role     string `gorm:"not null;default:'member'"`
}

func (Account) TableName() string {
	return "accounts"
}

// User is the locally held session identity.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
