package service

// Admins is the set of identities with admin capability. The owner is an
// admin that additionally may deactivate any batch.
type Admins struct {
	ids   map[int64]struct{}
	owner int64
}

// NewAdmins builds the admin set. The owner id is included even when absent
// from ids.
func NewAdmins(ids []int64, owner int64) Admins {
	set := make(map[int64]struct{}, len(ids)+1)
	for _, id := range ids {
		set[id] = struct{}{}
	}
	if owner != 0 {
		set[owner] = struct{}{}
	}
	return Admins{ids: set, owner: owner}
}

// IsAdmin reports whether id holds admin capability.
func (a Admins) IsAdmin(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// IsOwner reports whether id is the bot owner.
func (a Admins) IsOwner(id int64) bool {
	return a.owner != 0 && id == a.owner
}
