package zones

import (
	"fmt"
	"sync"

	"github.com/pixil98/go-mmo/internal/sfs"
)

// User is a room occupant as other clients see it. The numeric id is
// the occupant's session id; the user id is the save id.
type User struct {
	NumericID int32
	SaveID    string
	Privilege int16

	// PlayerIndex is the occupant's seat. Spectators use -1.
	PlayerIndex int16

	mu       sync.Mutex
	varOrder []string
	vars     map[string]sfs.Value
	posVars  map[string]sfs.Value
}

func NewUser(numericID int32, saveID string, privilege, playerIndex int16) *User {
	return &User{
		NumericID:   numericID,
		SaveID:      saveID,
		Privilege:   privilege,
		PlayerIndex: playerIndex,
		vars:        make(map[string]sfs.Value),
	}
}

// SetVariable sets a user variable, preserving insertion order.
func (u *User) SetVariable(name string, value sfs.Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.vars[name]; !ok {
		u.varOrder = append(u.varOrder, name)
	}
	u.vars[name] = value
}

func (u *User) Variable(name string) (sfs.Value, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.vars[name]
	return v, ok
}

// VariableNames returns the user's variable names in set order.
func (u *User) VariableNames() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string{}, u.varOrder...)
}

// SetPositionalVariable stores transient world-position state. These
// are not part of the user's wire sequence.
func (u *User) SetPositionalVariable(name string, value sfs.Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.posVars == nil {
		u.posVars = make(map[string]sfs.Value)
	}
	u.posVars[name] = value
}

func (u *User) PositionalVariable(name string) (sfs.Value, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.posVars[name]
	return v, ok
}

// PositionalVariableNames returns the transient positional variable
// names. Order is not significant.
func (u *User) PositionalVariableNames() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	names := make([]string, 0, len(u.posVars))
	for name := range u.posVars {
		names = append(names, name)
	}
	return names
}

// Values serializes the user as its wire sequence.
func (u *User) Values() []sfs.Value {
	u.mu.Lock()
	defer u.mu.Unlock()

	vars := make([]sfs.Value, 0, len(u.varOrder))
	for _, name := range u.varOrder {
		value := u.vars[name]
		vars = append(vars, sfs.ArrayOf(sfs.NewSequenceWriter().
			WriteString(name).
			WriteByte(variableTypeOf(value)).
			WriteValue(value).
			Values()))
	}

	return sfs.NewSequenceWriter().
		WriteInt(u.NumericID).
		WriteString(u.SaveID).
		WriteShort(u.Privilege).
		WriteShort(u.PlayerIndex).
		WriteArray(vars).
		Values()
}

// ReadUser parses a user wire sequence.
func ReadUser(r *sfs.SequenceReader) (*User, error) {
	numericID, err := r.Int()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}

	saveID, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("reading user save id: %w", err)
	}

	privilege, err := r.Short()
	if err != nil {
		return nil, fmt.Errorf("reading user privilege: %w", err)
	}

	playerIndex, err := r.Short()
	if err != nil {
		return nil, fmt.Errorf("reading user player index: %w", err)
	}

	vars, err := r.Array()
	if err != nil {
		return nil, fmt.Errorf("reading user variables: %w", err)
	}

	u := NewUser(numericID, saveID, privilege, playerIndex)
	for _, raw := range vars {
		seq, ok := raw.AsArray()
		if !ok {
			return nil, fmt.Errorf("user variable entry is not a sequence")
		}
		name, value, err := ParseVariableUpdate(seq)
		if err != nil {
			return nil, err
		}
		u.SetVariable(name, value)
	}
	return u, nil
}
