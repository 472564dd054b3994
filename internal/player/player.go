package player

import (
	"sync"

	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/zones"
)

// sessionKey is where the bound player lives in the session object bag.
const sessionKey = "player"

// Player is a logged-in user: the session, the resolved account and
// save, the zone it logged into, and its room memberships.
type Player struct {
	session *transport.Session
	account *services.Account
	save    *services.Save
	zone    *zones.Zone

	mu         sync.Mutex
	joined     []*zones.Room
	spectating []*zones.Room
}

func New(session *transport.Session, account *services.Account, save *services.Save, zone *zones.Zone) *Player {
	return &Player{
		session: session,
		account: account,
		save:    save,
		zone:    zone,
	}
}

func (p *Player) Session() *transport.Session { return p.session }
func (p *Player) Account() *services.Account  { return p.account }
func (p *Player) Save() *services.Save        { return p.save }
func (p *Player) Zone() *zones.Zone           { return p.zone }

// Bind attaches the player to its session. A session carries at most
// one player.
func Bind(s *transport.Session, p *Player) {
	s.SetObject(sessionKey, p)
}

// Unbind detaches the player from the session.
func Unbind(s *transport.Session) {
	s.DeleteObject(sessionKey)
}

// FromSession returns the player bound to the session, or nil before
// login completes.
func FromSession(s *transport.Session) *Player {
	p, _ := s.Object(sessionKey).(*Player)
	return p
}

// user builds the occupant entry other clients see.
func (p *Player) user(playerIndex int16) *zones.User {
	return zones.NewUser(p.session.NumericID(), p.save.ID, p.account.Level.WireRank(), playerIndex)
}

// JoinRoom seats the player in a room and records the membership.
// Joining a room the player is already in refreshes the occupancy
// entry.
func (p *Player) JoinRoom(r *zones.Room) {
	r.AddUser(p.user(0))

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, room := range p.joined {
		if room == r {
			return
		}
	}
	p.joined = append(p.joined, r)
}

// SpectateRoom adds the player to a game room as a spectator.
func (p *Player) SpectateRoom(r *zones.Room) {
	r.AddUser(p.user(-1))

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, room := range p.spectating {
		if room == r {
			return
		}
	}
	p.spectating = append(p.spectating, r)
}

// LeaveRoom removes the player from a room's occupancy and membership.
func (p *Player) LeaveRoom(r *zones.Room) {
	r.RemoveUser(p.save.ID)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined = removeRoom(p.joined, r)
	p.spectating = removeRoom(p.spectating, r)
}

// LeaveAllRooms removes the player from every room it occupies.
func (p *Player) LeaveAllRooms() {
	for _, r := range p.Rooms() {
		p.LeaveRoom(r)
	}
}

// JoinedRooms returns the rooms the player is seated in.
func (p *Player) JoinedRooms() []*zones.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*zones.Room{}, p.joined...)
}

// SpectatedRooms returns the rooms the player is watching.
func (p *Player) SpectatedRooms() []*zones.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*zones.Room{}, p.spectating...)
}

// Rooms returns every room the player occupies, seated or spectating.
func (p *Player) Rooms() []*zones.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]*zones.Room{}, p.joined...)
	return append(out, p.spectating...)
}

// InRoom reports whether the player occupies the room with the given
// numeric id.
func (p *Player) InRoom(id int32) bool {
	for _, r := range p.Rooms() {
		if r.ID() == id {
			return true
		}
	}
	return false
}

func removeRoom(rooms []*zones.Room, r *zones.Room) []*zones.Room {
	for i, room := range rooms {
		if room == r {
			return append(rooms[:i], rooms[i+1:]...)
		}
	}
	return rooms
}
