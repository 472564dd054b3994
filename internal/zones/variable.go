package zones

import (
	"fmt"
	"sync"

	"github.com/pixil98/go-mmo/internal/sfs"
)

// Variable type tags on the wire.
const (
	VarTypeNull   byte = 0
	VarTypeBool   byte = 1
	VarTypeInt    byte = 2
	VarTypeDouble byte = 3
	VarTypeString byte = 4
	VarTypeObject byte = 5
	VarTypeArray  byte = 6
)

// VariableResolver supplies values for dynamic variables at write time.
type VariableResolver interface {
	Resolve(key string) (sfs.Value, bool)
}

// Variable is one room variable. Dynamic variables have no stored
// value; they are resolved against a provider every time the room is
// serialized.
type Variable struct {
	name       string
	private    bool
	persistent bool

	dynamic    bool
	dynamicKey string

	mu    sync.Mutex
	value sfs.Value
}

func NewVariable(name string, value sfs.Value, private, persistent bool) *Variable {
	return &Variable{
		name:       name,
		value:      value,
		private:    private,
		persistent: persistent,
	}
}

// NewDynamicVariable creates a variable whose value is looked up by key
// from the resolver when the room is serialized.
func NewDynamicVariable(name, key string, private, persistent bool) *Variable {
	return &Variable{
		name:       name,
		dynamic:    true,
		dynamicKey: key,
		private:    private,
		persistent: persistent,
	}
}

func (v *Variable) Name() string     { return v.name }
func (v *Variable) Private() bool    { return v.private }
func (v *Variable) Persistent() bool { return v.persistent }
func (v *Variable) Dynamic() bool    { return v.dynamic }

func (v *Variable) Value() sfs.Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *Variable) SetValue(val sfs.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
}

// resolve returns the current value, consulting the resolver for
// dynamic variables. A dynamic variable with no provider value writes
// as null.
func (v *Variable) resolve(r VariableResolver) sfs.Value {
	if v.dynamic {
		if r != nil {
			if val, ok := r.Resolve(v.dynamicKey); ok {
				return val
			}
		}
		return sfs.Null()
	}
	return v.Value()
}

// Values serializes the variable as its wire sequence.
func (v *Variable) Values(r VariableResolver) []sfs.Value {
	value := v.resolve(r)
	return sfs.NewSequenceWriter().
		WriteString(v.name).
		WriteByte(variableTypeOf(value)).
		WriteValue(value).
		WriteBool(v.private).
		WriteBool(v.persistent).
		Values()
}

// variableTypeOf maps a value to its variable type tag.
func variableTypeOf(v sfs.Value) byte {
	switch v.Tag() {
	case sfs.TagNull:
		return VarTypeNull
	case sfs.TagBool:
		return VarTypeBool
	case sfs.TagByte, sfs.TagShort, sfs.TagInt, sfs.TagLong:
		return VarTypeInt
	case sfs.TagFloat, sfs.TagDouble:
		return VarTypeDouble
	case sfs.TagString:
		return VarTypeString
	case sfs.TagObject, sfs.TagClass:
		return VarTypeObject
	default:
		return VarTypeArray
	}
}

// ParseVariableUpdate reads a client-sent variable sequence and returns
// the name and new value.
func ParseVariableUpdate(values []sfs.Value) (string, sfs.Value, error) {
	r := sfs.NewSequenceReader(values)

	name, err := r.String()
	if err != nil {
		return "", sfs.Null(), fmt.Errorf("reading variable name: %w", err)
	}

	typ, err := r.Int()
	if err != nil {
		return "", sfs.Null(), fmt.Errorf("reading variable type: %w", err)
	}

	value, err := r.Raw()
	if err != nil {
		return "", sfs.Null(), fmt.Errorf("reading variable value: %w", err)
	}

	if byte(typ) == VarTypeNull {
		value = sfs.Null()
	}
	return name, value, nil
}
