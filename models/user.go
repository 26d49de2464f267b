package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleDietitian Role = "dietitian"
	RoleClient    Role = "client"
)

// User is a member of an organization's team.
type User struct {
	gorm.Model
	OrgID    uint   `gorm:"index;not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	FullName string
	Role     Role `gorm:"size:16;not null"`
	Disabled bool
}
