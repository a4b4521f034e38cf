package domain

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User mirrors an identity owned by the external auth provider; ClerkID is the
// provider's subject.
type User struct {
	ID        int64
	ClerkID   string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
