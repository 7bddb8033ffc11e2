package models

import "time"

// User is a member of a family. FamilyID is the tenant scope every
// syncable entity is bound to.
type User struct {
	ID           string
	FamilyID     string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
