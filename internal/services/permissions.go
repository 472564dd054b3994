package services

// PermissionEngine answers permission-node checks for accounts.
type PermissionEngine interface {
	// Has reports whether the account holds the node. The floor is the
	// minimum level that implies the node when no explicit floor is
	// configured for it.
	Has(a *Account, node string, floor PermissionLevel) bool
}

// LevelPermissions grants nodes by account level, with optional
// per-node floor overrides.
type LevelPermissions struct {
	floors map[string]PermissionLevel
}

func NewLevelPermissions(floors map[string]PermissionLevel) *LevelPermissions {
	if floors == nil {
		floors = map[string]PermissionLevel{}
	}
	return &LevelPermissions{
		floors: floors,
	}
}

func (p *LevelPermissions) Has(a *Account, node string, floor PermissionLevel) bool {
	if a == nil {
		return false
	}
	if override, ok := p.floors[node]; ok {
		floor = override
	}
	return a.Level >= floor
}
