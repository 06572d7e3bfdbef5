package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntityRef references a department or role either by persisted identifier or
// by a draft name pending creation. The two cases are mutually exclusive: a
// resolved reference never carries a draft name. The zero value references
// nothing.
type EntityRef struct {
	id    string
	draft string
}

// ResolvedRef builds a reference to a persisted entity.
func ResolvedRef(id string) EntityRef {
	return EntityRef{id: id}
}

// DraftRef builds a reference to an entity that does not exist yet, named by
// free text. An empty or whitespace-only name yields the zero reference.
func DraftRef(name string) EntityRef {
	if NameKey(name) == "" {
		return EntityRef{}
	}

	return EntityRef{draft: name}
}

// ID returns the persisted identifier, or "" for draft and zero references.
func (r EntityRef) ID() string {
	return r.id
}

// DraftName returns the pending name, or "" for resolved and zero references.
func (r EntityRef) DraftName() string {
	return r.draft
}

// IsResolved reports whether the reference names a persisted entity.
func (r EntityRef) IsResolved() bool {
	return r.id != ""
}

// IsDraft reports whether the reference carries a name pending creation.
func (r EntityRef) IsDraft() bool {
	return r.id == "" && r.draft != ""
}

// IsZero reports whether the reference points at nothing.
func (r EntityRef) IsZero() bool {
	return r.id == "" && r.draft == ""
}

func (r EntityRef) String() string {
	switch {
	case r.IsResolved():
		return r.id
	case r.IsDraft():
		return fmt.Sprintf("draft(%s)", r.draft)
	default:
		return "<none>"
	}
}

type entityRefJSON struct {
	ID    string `json:"id,omitempty"`
	Draft string `json:"draft,omitempty"`
}

// MarshalJSON encodes the reference as {"id": ...}, {"draft": ...} or null.
func (r EntityRef) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(entityRefJSON{ID: r.id, Draft: r.draft})
}

// UnmarshalJSON accepts null, {"id": ...} or {"draft": ...}. When both fields
// are present, which the editor may produce transiently, the persisted id
// wins and the draft name is discarded.
func (r *EntityRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = EntityRef{}

		return nil
	}

	var raw entityRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid entity reference: %w", err)
	}

	if raw.ID != "" {
		*r = ResolvedRef(raw.ID)

		return nil
	}

	*r = DraftRef(raw.Draft)

	return nil
}
