package domain

import "time"

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

var roles = []string{string(RoleCustomer), string(RoleAdmin)}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

func (r *Role) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, roles)
	if err != nil {
		return err
	}
	*r = Role(v)
	return nil
}

// SystemAdminUsername is the seeded administrator that can never be demoted,
// deactivated or deleted.
const SystemAdminUsername = "admin"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	CreatedDate  time.Time `json:"createdDate"`
	IsActive     bool      `json:"isActive"`
}

func (u *User) IsSystemAdmin() bool {
	return u.Username == SystemAdminUsername
}
