package domain

import "time"

// Session is the live binding between a connection and a (username, room, role) triple.
// Role is copied from the profile at join time and is never refreshed.
type Session struct {
	ID       string `json:"id"` // connection id
	Username string `json:"username"`
	Room     string `json:"room"`
	Role     string `json:"role"`
}

// Profile is a registered account
type Profile struct {
	Username    string    `gorm:"primarykey;size:64" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	DisplayName string    `gorm:"size:100" json:"displayName"`
	Bio         string    `gorm:"size:500" json:"bio"`
	Location    string    `gorm:"size:100" json:"location"`
	Website     string    `gorm:"size:255" json:"website"`
	Avatar      *string   `json:"avatar"`
	Role        string    `gorm:"size:64;not null;default:user" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// DefaultProfile is what an unknown username reads as
func DefaultProfile(username string) *Profile {
	now := time.Now()
	return &Profile{
		Username:    username,
		DisplayName: username,
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProfileUpdate holds the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Website     *string
	Avatar      *string
}

// Role is a custom role. The built-in user, mod and admin roles are not stored.
type Role struct {
	RoleID  string       `gorm:"primarykey;size:64" json:"roleId"`
	Name    string       `gorm:"size:100;not null" json:"name"`
	Prefix  string       `gorm:"size:32;not null" json:"prefix"`
	Color   string       `gorm:"size:32;not null" json:"color"`
	Members []RoleMember `gorm:"foreignKey:RoleID" json:"-"`
	Users   []string     `gorm:"-" json:"users"`
}

// TableName returns the table name for Role model.
func (Role) TableName() string {
	return "roles"
}

// RoleMember assigns a username to a custom role. A username belongs to at most one role.
type RoleMember struct {
	Username  string    `gorm:"primarykey;size:64"`
	RoleID    string    `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

// TableName returns the table name for RoleMember model.
func (RoleMember) TableName() string {
	return "role_members"
}
