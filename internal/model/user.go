package model

import (
	"time"
)

// AuthProvider names how a user identified themselves.
type AuthProvider string

const (
	AuthProviderGuest  AuthProvider = "guest"
	AuthProviderGoogle AuthProvider = "google"
	AuthProviderEmail  AuthProvider = "email"
)

// User is the optional owner of chat sessions. Authentication happens
// upstream; this service only consumes the identity.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email,omitempty"`
	Name         string       `json:"name,omitempty"`
	AuthProvider AuthProvider `json:"authProvider"`
	CreatedAt    time.Time    `json:"createdAt,omitempty"`
}
