package zones

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ZoneManager is the zone directory. Zone creation and removal go
// through it so room ids stay unique across the server.
type ZoneManager struct {
	roomID atomic.Int32

	mu        sync.Mutex
	zones     map[string]*Zone
	onRemoved []func(z *Zone)
}

func NewZoneManager() *ZoneManager {
	return &ZoneManager{
		zones: make(map[string]*Zone),
	}
}

// CreateZone creates a zone, optionally with an initial set of room
// groups. Creating a zone whose name is already taken, or listing the
// same group twice, is an error with no partial mutation.
func (zm *ZoneManager) CreateZone(name string, active bool, groups ...string) (*Zone, error) {
	zm.mu.Lock()
	defer zm.mu.Unlock()

	if _, ok := zm.zones[name]; ok {
		return nil, fmt.Errorf("zone %q already exists", name)
	}

	z := newZone(name, active, zm)
	for _, g := range groups {
		if _, err := z.AddGroup(g); err != nil {
			return nil, err
		}
	}
	zm.zones[name] = z
	return z, nil
}

// RemoveZone tears a zone down: every room group is removed first,
// evicting room occupants, then the directory entry, then removal
// subscribers are notified.
func (zm *ZoneManager) RemoveZone(name string) {
	zm.mu.Lock()
	z, ok := zm.zones[name]
	hooks := append([]func(z *Zone){}, zm.onRemoved...)
	zm.mu.Unlock()

	if !ok {
		return
	}

	for _, g := range z.Groups() {
		z.RemoveGroup(g.Name())
	}

	// A concurrent remover of the same zone may have won; only the call
	// that clears the directory entry notifies.
	zm.mu.Lock()
	_, ok = zm.zones[name]
	delete(zm.zones, name)
	zm.mu.Unlock()
	if !ok {
		return
	}

	for _, f := range hooks {
		f(z)
	}
}

// OnZoneRemoved registers a callback invoked when a zone is removed.
func (zm *ZoneManager) OnZoneRemoved(f func(z *Zone)) {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	zm.onRemoved = append(zm.onRemoved, f)
}

func (zm *ZoneManager) Zone(name string) *Zone {
	zm.mu.Lock()
	defer zm.mu.Unlock()
	return zm.zones[name]
}

func (zm *ZoneManager) Zones() []*Zone {
	zm.mu.Lock()
	defer zm.mu.Unlock()

	out := make([]*Zone, 0, len(zm.zones))
	for _, z := range zm.zones {
		out = append(out, z)
	}
	return out
}

// RoomByID finds a room by numeric id across all zones.
func (zm *ZoneManager) RoomByID(id int32) *Room {
	for _, z := range zm.Zones() {
		if r := z.RoomByID(id); r != nil {
			return r
		}
	}
	return nil
}

func (zm *ZoneManager) nextRoomID() int32 {
	return zm.roomID.Add(1)
}
