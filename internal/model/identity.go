package model

// ClientID identifies one browser (or CLI profile) whose client state is persisted
type ClientID string

// Credential is the opaque bearer token issued by the remote API.
// It is never validated locally; authorization trust stays with the API.
type Credential string

// RoleAdmin is the only role label with special meaning
const RoleAdmin = "admin"

// Identity describes the signed-in person as reported by the login response
type Identity struct {
	UserID int    `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}
