package model

// Role values recognised across the system. Engineers authenticate with a
// registered bluetooth device rather than credentials.
const (
	RoleUser     = "user"
	RoleEngineer = "engineer"
	RoleAdmin    = "admin"
)

type User struct {
	Username   string `json:"username" bson:"_id" validate:"required,min=2,max=20"`
	Password   string `json:"-" bson:"password" validate:"required,min=8,max=128"`
	Role       string `json:"role,omitempty" bson:"role" validate:"omitempty,oneof=user engineer admin"`
	MACAddress string `json:"mac_address,omitempty" bson:"mac_address,omitempty" validate:"omitempty,mac"`
}

// PublicUser is the shape returned to agents and API callers. Credentials
// never leave the users service.
type PublicUser struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		Username: u.Username,
		Role:     u.Role,
	}
}
