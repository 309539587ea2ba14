// Package models contains data structures for the application's domain models.
package models

import (
	"strings"

	"inkwell/internal/store"
)

// Identity is the canonical author record. Records are created by the
// authentication provider on account creation and are read-only here.
type Identity struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url"`
}

// DisplayHandle returns the public handle, falling back to the email local
// part when no explicit handle was ever written.
func (i Identity) DisplayHandle() string {
	if i.Handle != "" {
		return i.Handle
	}
	return EmailLocalPart(i.Email)
}

// EmailLocalPart returns the part of an email address before the '@'.
func EmailLocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}

// IdentityFromDoc decodes an identities-collection document.
func IdentityFromDoc(d store.Doc) Identity {
	return Identity{
		ID:        d.ID,
		Handle:    d.Str("handle"),
		Name:      d.Str("name"),
		Email:     d.Str("email"),
		AvatarURL: d.Str("avatar_url"),
	}
}

// Fields returns the document representation for writes.
func (i Identity) Fields() map[string]any {
	return map[string]any{
		"handle":     i.Handle,
		"name":       i.Name,
		"email":      i.Email,
		"avatar_url": i.AvatarURL,
	}
}
