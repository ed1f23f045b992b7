package models

// Owned is implemented by every record that belongs to a single user.
type Owned interface {
	GetID() uint64
	GetOwnerID() uint64
	SetOwnerID(ownerID uint64)
	// Assignments lists the columns an update may overwrite. It never contains
	// id, user_id or created_at.
	Assignments() map[string]any
}
