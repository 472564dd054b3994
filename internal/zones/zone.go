package zones

import (
	"fmt"
	"sync"
)

// Zone is a named game zone holding room groups. Inactive zones refuse
// logins but keep their topology.
type Zone struct {
	name    string
	manager *ZoneManager

	mu         sync.Mutex
	active     bool
	groupOrder []string
	groups     map[string]*RoomGroup
}

func newZone(name string, active bool, manager *ZoneManager) *Zone {
	return &Zone{
		name:    name,
		active:  active,
		manager: manager,
		groups:  make(map[string]*RoomGroup),
	}
}

func (z *Zone) Name() string { return z.name }

func (z *Zone) Active() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.active
}

func (z *Zone) SetActive(active bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.active = active
}

// AddGroup creates an empty room group in the zone.
func (z *Zone) AddGroup(name string) (*RoomGroup, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if _, ok := z.groups[name]; ok {
		return nil, fmt.Errorf("group %q already exists in zone %q", name, z.name)
	}

	g := newRoomGroup(name, z)
	z.groupOrder = append(z.groupOrder, name)
	z.groups[name] = g
	return g, nil
}

// RemoveGroup drops a room group from the zone, evicting the occupants
// of every room in it.
func (z *Zone) RemoveGroup(name string) {
	z.mu.Lock()
	g, ok := z.groups[name]
	if ok {
		delete(z.groups, name)
		for i, n := range z.groupOrder {
			if n == name {
				z.groupOrder = append(z.groupOrder[:i], z.groupOrder[i+1:]...)
				break
			}
		}
	}
	z.mu.Unlock()

	if !ok {
		return
	}
	for _, r := range g.Rooms() {
		r.RemoveAllUsers()
		g.RemoveRoom(r.Name())
	}
}

func (z *Zone) Group(name string) *RoomGroup {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.groups[name]
}

// Groups returns the zone's groups in declaration order.
func (z *Zone) Groups() []*RoomGroup {
	z.mu.Lock()
	defer z.mu.Unlock()

	out := make([]*RoomGroup, 0, len(z.groupOrder))
	for _, name := range z.groupOrder {
		out = append(out, z.groups[name])
	}
	return out
}

// Rooms returns every room in the zone across all groups.
func (z *Zone) Rooms() []*Room {
	var out []*Room
	for _, g := range z.Groups() {
		out = append(out, g.Rooms()...)
	}
	return out
}

// RoomByID finds a room in the zone by its numeric id.
func (z *Zone) RoomByID(id int32) *Room {
	for _, r := range z.Rooms() {
		if r.ID() == id {
			return r
		}
	}
	return nil
}
