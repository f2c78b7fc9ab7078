package response

import (
	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
)

// Identity represents the signed-in person in API responses
type Identity struct {
	UserID  int    `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// IdentityFromModel converts a model.Identity to a response Identity
func IdentityFromModel(i *model.Identity) *Identity {
	if i == nil {
		return nil
	}
	return &Identity{
		UserID:  i.UserID,
		Name:    i.Name,
		Email:   i.Email,
		Role:    i.Role,
		IsAdmin: guard.IsAdmin(i),
	}
}

// SessionResponse describes the client state. The credential itself is never returned.
type SessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	Identity      *Identity `json:"identity,omitempty"`
}

// SessionFromSnapshot creates a SessionResponse from a snapshot
func SessionFromSnapshot(s session.Session) SessionResponse {
	return SessionResponse{
		Authenticated: s.IsAuthenticated(),
		Identity:      IdentityFromModel(s.Identity),
	}
}

// MessageResponse carries a human-readable outcome
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// AccessResponse is the outcome of a route guard check
type AccessResponse struct {
	Capability string `json:"capability"`
	Decision   string `json:"decision"`
	Admitted   bool   `json:"admitted"`
	Location   string `json:"location,omitempty"`
}

// AccessFromDecision creates an AccessResponse
func AccessFromDecision(c guard.Capability, d guard.Decision) AccessResponse {
	return AccessResponse{
		Capability: c.String(),
		Decision:   d.String(),
		Admitted:   d.Admitted(),
		Location:   d.Location(),
	}
}
