package models

import (
	"slices"
	"time"
)

// Organization owns processes and the department/role directory. Membership
// and invitations are managed elsewhere; this model carries just enough to
// answer "may this actor manage the organization's processes".
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,min=1,max=120"`
	OwnerID   string    `json:"owner_id"`
	Managers  []string  `json:"managers,omitempty"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ManageableBy reports whether the actor may modify the organization's
// processes and directory entries.
func (o *Organization) ManageableBy(actorID string) bool {
	if actorID == "" {
		return false
	}

	return o.OwnerID == actorID || slices.Contains(o.Managers, actorID)
}

// AccessibleBy reports whether the actor may read the organization's
// processes and directory.
func (o *Organization) AccessibleBy(actorID string) bool {
	return o.ManageableBy(actorID) || slices.Contains(o.Members, actorID)
}
