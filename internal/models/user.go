package models

import "time"

// User is a row of the local identity emulator's user table.
type User struct {
	Subject      string
	Email        string
	PasswordHash string
	Confirmed    bool
	CreatedAt    time.Time
}
