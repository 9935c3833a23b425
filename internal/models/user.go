package models

import (
	"strings"
	"time"
)

// Role is the permission level of an admin panel account
type Role string

// Role constants
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User represents an admin panel account
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Name         string    `json:"name"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordKind tells how a stored password value has to be verified
type PasswordKind int

const (
	// PasswordHashed is a bcrypt hash
	PasswordHashed PasswordKind = iota
	// PasswordLegacyPlaintext is a password stored before hashing was introduced.
	// It is re-hashed on the next successful login.
	PasswordLegacyPlaintext
)

// bcryptPrefixes are the hash-format markers that identify a bcrypt value
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// PasswordRecord is a stored password together with its kind
type PasswordRecord struct {
	Kind  PasswordKind
	Value string
}

// ParsePasswordRecord classifies a stored password value by its hash-format marker
func ParsePasswordRecord(stored string) PasswordRecord {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return PasswordRecord{Kind: PasswordHashed, Value: stored}
		}
	}
	return PasswordRecord{Kind: PasswordLegacyPlaintext, Value: stored}
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToResponse converts a user to its API representation
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ImageURL:  u.ImageURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUserRequest represents a request to create an admin panel account
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
	Role     Role   `json:"role"`
}

// UpdateUserRequest represents a partial update of an account.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Role     *Role   `json:"role,omitempty"`
}

// UserChanges lists the columns of an account to overwrite.
// Nil fields keep their stored value.
type UserChanges struct {
	Email        *string
	PasswordHash *string
	Name         *string
	ImageURL     *string
	Role         *Role
}

// Empty reports whether no column would change
func (c *UserChanges) Empty() bool {
	return c.Email == nil && c.PasswordHash == nil && c.Name == nil && c.ImageURL == nil && c.Role == nil
}

// Apply copies the set fields onto the user
func (c *UserChanges) Apply(u *User) {
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.ImageURL != nil {
		u.ImageURL = *c.ImageURL
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
}
