package models

// Stats roles.
const (
	RoleOwner   = "owner"
	RoleVisitor = "visitor"
)

// Stats is a summary of the writing set currently visible to a viewer.
// It is never persisted and never patched incrementally: every emission is
// recomputed from the full visible set.
type Stats struct {
	Role string `json:"role"`

	// Owner view.
	Stories int `json:"stories"`
	Poems   int `json:"poems"`
	Drafts  int `json:"drafts"`

	// Visitor view.
	Published int `json:"published"`
	Hearts    int `json:"hearts"`
}
