package zones

import (
	"sync"

	"github.com/pixil98/go-mmo/internal/sfs"
)

// Room is a live room instance. The declared shape (name, limits,
// variables) comes from configuration; occupancy changes at runtime.
type Room struct {
	id    int32
	name  string
	group *RoomGroup

	game       bool
	hidden     bool
	password   bool
	maxUsers   int16
	maxSpectators int16

	mu       sync.Mutex
	varOrder []string
	vars     map[string]*Variable
	users    map[string]*User
}

func newRoom(id int32, name string, group *RoomGroup, game, hidden, password bool, maxUsers, maxSpectators int16) *Room {
	return &Room{
		id:            id,
		name:          name,
		group:         group,
		game:          game,
		hidden:        hidden,
		password:      password,
		maxUsers:      maxUsers,
		maxSpectators: maxSpectators,
		vars:          make(map[string]*Variable),
		users:         make(map[string]*User),
	}
}

func (r *Room) ID() int32          { return r.id }
func (r *Room) Name() string       { return r.name }
func (r *Room) Group() *RoomGroup  { return r.group }
func (r *Room) IsGame() bool       { return r.game }
func (r *Room) IsHidden() bool     { return r.hidden }
func (r *Room) MaxUsers() int16    { return r.maxUsers }

// AddVariable attaches a variable to the room, preserving declaration
// order.
func (r *Room) AddVariable(v *Variable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vars[v.Name()]; !ok {
		r.varOrder = append(r.varOrder, v.Name())
	}
	r.vars[v.Name()] = v
}

func (r *Room) Variable(name string) *Variable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vars[name]
}

func (r *Room) Variables() []*Variable {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Variable, 0, len(r.varOrder))
	for _, name := range r.varOrder {
		out = append(out, r.vars[name])
	}
	return out
}

// AddUser adds an occupant, keyed by save id. Re-adding the same save
// replaces the previous entry.
func (r *Room) AddUser(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.SaveID] = u
}

// RemoveAllUsers evicts every occupant from the room.
func (r *Room) RemoveAllUsers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]*User)
}

func (r *Room) RemoveUser(saveID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, saveID)
}

func (r *Room) User(saveID string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[saveID]
}

func (r *Room) Users() []*User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

// UserCount counts seated occupants; spectators are excluded.
func (r *Room) UserCount() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int16
	for _, u := range r.users {
		if u.PlayerIndex >= 0 {
			n++
		}
	}
	return n
}

func (r *Room) SpectatorCount() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int16
	for _, u := range r.users {
		if u.PlayerIndex < 0 {
			n++
		}
	}
	return n
}

// WriteTo serializes the room. Private variables are skipped unless
// includePrivate is set. Game rooms carry spectator counts.
func (r *Room) WriteTo(w *sfs.SequenceWriter, includePrivate bool, resolver VariableResolver) {
	w.WriteInt(r.id).
		WriteString(r.name).
		WriteString(r.group.Name()).
		WriteBool(r.game).
		WriteBool(r.hidden).
		WriteBool(r.password).
		WriteShort(r.UserCount()).
		WriteShort(r.maxUsers)

	vars := make([]sfs.Value, 0)
	for _, v := range r.Variables() {
		if v.Private() && !includePrivate {
			continue
		}
		vars = append(vars, sfs.ArrayOf(v.Values(resolver)))
	}
	w.WriteArray(vars)

	if r.game {
		w.WriteShort(r.SpectatorCount()).
			WriteShort(r.maxSpectators)
	}
}
