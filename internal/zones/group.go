package zones

import (
	"fmt"
	"sync"
)

// RoomGroup is a named set of rooms inside a zone.
type RoomGroup struct {
	name string
	zone *Zone

	mu        sync.Mutex
	roomOrder []string
	rooms     map[string]*Room
}

func newRoomGroup(name string, zone *Zone) *RoomGroup {
	return &RoomGroup{
		name:  name,
		zone:  zone,
		rooms: make(map[string]*Room),
	}
}

func (g *RoomGroup) Name() string { return g.name }
func (g *RoomGroup) Zone() *Zone  { return g.zone }

// AddRoom creates a room in the group. Room ids are assigned by the
// zone manager and unique across all zones.
func (g *RoomGroup) AddRoom(name string, game, hidden, password bool, maxUsers, maxSpectators int16) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[name]; ok {
		return nil, fmt.Errorf("room %q already exists in group %q", name, g.name)
	}

	room := newRoom(g.zone.manager.nextRoomID(), name, g, game, hidden, password, maxUsers, maxSpectators)
	g.roomOrder = append(g.roomOrder, name)
	g.rooms[name] = room
	return room, nil
}

func (g *RoomGroup) RemoveRoom(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[name]; !ok {
		return
	}
	delete(g.rooms, name)
	for i, n := range g.roomOrder {
		if n == name {
			g.roomOrder = append(g.roomOrder[:i], g.roomOrder[i+1:]...)
			break
		}
	}
}

func (g *RoomGroup) Room(name string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[name]
}

// Rooms returns the group's rooms in declaration order.
func (g *RoomGroup) Rooms() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Room, 0, len(g.roomOrder))
	for _, name := range g.roomOrder {
		out = append(out, g.rooms[name])
	}
	return out
}
