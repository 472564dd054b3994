package sfs

import "fmt"

// Payload is an insertion-ordered dictionary of named Values, the high-level
// object the wire format exchanges during handshake and system packets.
type Payload struct {
	keys   []string
	index  map[string]int
	values []Value
}

func NewPayload() *Payload {
	return &Payload{index: map[string]int{}}
}

func (p *Payload) Len() int { return len(p.keys) }

// Keys returns the entry names in insertion order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *Payload) Has(key string) bool {
	_, ok := p.index[key]
	return ok
}

func (p *Payload) Get(key string) (Value, bool) {
	i, ok := p.index[key]
	if !ok {
		return Value{}, false
	}
	return p.values[i], true
}

// Set stores a value under key, replacing any previous entry in place.
func (p *Payload) Set(key string, v Value) *Payload {
	if i, ok := p.index[key]; ok {
		p.values[i] = v
		return p
	}
	p.index[key] = len(p.keys)
	p.keys = append(p.keys, key)
	p.values = append(p.values, v)
	return p
}

func (p *Payload) SetNull(key string) *Payload              { return p.Set(key, Null()) }
func (p *Payload) SetBool(key string, v bool) *Payload      { return p.Set(key, Bool(v)) }
func (p *Payload) SetByte(key string, v byte) *Payload      { return p.Set(key, Byte(v)) }
func (p *Payload) SetShort(key string, v int16) *Payload    { return p.Set(key, Short(v)) }
func (p *Payload) SetInt(key string, v int32) *Payload      { return p.Set(key, Int(v)) }
func (p *Payload) SetLong(key string, v int64) *Payload     { return p.Set(key, Long(v)) }
func (p *Payload) SetFloat(key string, v float32) *Payload  { return p.Set(key, Float(v)) }
func (p *Payload) SetDouble(key string, v float64) *Payload { return p.Set(key, Double(v)) }
func (p *Payload) SetString(key string, v string) *Payload  { return p.Set(key, String(v)) }
func (p *Payload) SetStringArray(key string, v []string) *Payload {
	return p.Set(key, StringArray(v))
}
func (p *Payload) SetArray(key string, v []Value) *Payload { return p.Set(key, ArrayOf(v)) }
func (p *Payload) SetObject(key string, v *Payload) *Payload {
	return p.Set(key, Object(v))
}

func (p *Payload) typeErr(key string, want string, got Tag) error {
	return fmt.Errorf("payload entry %q: expected %s, got %s", key, want, got)
}

func (p *Payload) missingErr(key string) error {
	return fmt.Errorf("payload entry %q: missing", key)
}

func (p *Payload) GetBool(key string) (bool, error) {
	v, ok := p.Get(key)
	if !ok {
		return false, p.missingErr(key)
	}
	b, ok := v.AsBool()
	if !ok {
		return false, p.typeErr(key, "bool", v.Tag())
	}
	return b, nil
}

func (p *Payload) GetByte(key string) (byte, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, p.missingErr(key)
	}
	b, ok := v.AsByte()
	if !ok {
		return 0, p.typeErr(key, "byte", v.Tag())
	}
	return b, nil
}

func (p *Payload) GetShort(key string) (int16, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, p.missingErr(key)
	}
	s, ok := v.AsShort()
	if !ok {
		return 0, p.typeErr(key, "short", v.Tag())
	}
	return s, nil
}

// GetInt accepts byte, short and int entries, widening to int32.
func (p *Payload) GetInt(key string) (int32, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, p.missingErr(key)
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, p.typeErr(key, "int", v.Tag())
	}
	return i, nil
}

func (p *Payload) GetLong(key string) (int64, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, p.missingErr(key)
	}
	l, ok := v.AsLong()
	if !ok {
		return 0, p.typeErr(key, "long", v.Tag())
	}
	return l, nil
}

func (p *Payload) GetString(key string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		return "", p.missingErr(key)
	}
	s, ok := v.AsString()
	if !ok {
		return "", p.typeErr(key, "string", v.Tag())
	}
	return s, nil
}

func (p *Payload) GetStringArray(key string) ([]string, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, p.missingErr(key)
	}
	a, ok := v.AsStringArray()
	if !ok {
		return nil, p.typeErr(key, "string-array", v.Tag())
	}
	return a, nil
}

func (p *Payload) GetArray(key string) ([]Value, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, p.missingErr(key)
	}
	a, ok := v.AsArray()
	if !ok {
		return nil, p.typeErr(key, "array", v.Tag())
	}
	return a, nil
}

func (p *Payload) GetObject(key string) (*Payload, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, p.missingErr(key)
	}
	o, ok := v.AsObject()
	if !ok {
		return nil, p.typeErr(key, "object", v.Tag())
	}
	return o, nil
}
