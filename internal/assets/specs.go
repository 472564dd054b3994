// Package assets defines the file-backed game data: accounts, saves,
// and zone topology.
package assets

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/storage"
	"github.com/tidwall/gjson"
)

// AccountSpec is one account asset.
type AccountSpec struct {
	Username         string                   `json:"username"`
	Guest            bool                     `json:"guest"`
	ChatEnabled      bool                     `json:"chat_enabled"`
	StrictChatFilter bool                     `json:"strict_chat_filter"`
	Level            services.PermissionLevel `json:"level"`
	Capabilities     []string                 `json:"capabilities"`
}

func (a *AccountSpec) Validate() error {
	el := errors.NewErrorList()

	if a.Username == "" && !a.Guest {
		el.Add(fmt.Errorf("username is required"))
	}

	return el.Err()
}

// SaveSpec is one save profile asset, owned by an account.
type SaveSpec struct {
	Account     storage.SmartIdentifier[*AccountSpec] `json:"account"`
	DisplayName string                                `json:"display_name"`
}

func (s *SaveSpec) Validate() error {
	el := errors.NewErrorList()

	el.Add(s.Account.Validate())
	if s.DisplayName == "" {
		el.Add(fmt.Errorf("display_name is required"))
	}

	return el.Err()
}

// ZoneSpec describes one zone's room topology.
type ZoneSpec struct {
	Active bool        `json:"active"`
	Groups []GroupSpec `json:"groups"`
}

// Validate checks zone-level integrity only. Malformed room and
// variable definitions are not load failures; BuildZones logs and skips
// them so the rest of the topology still comes up.
func (z *ZoneSpec) Validate() error {
	el := errors.NewErrorList()

	seen := map[string]bool{}
	for i, g := range z.Groups {
		if g.Name == "" {
			el.Add(fmt.Errorf("group %d: name is required", i))
			continue
		}
		if seen[g.Name] {
			el.Add(fmt.Errorf("group %d: duplicate name %q", i, g.Name))
		}
		seen[g.Name] = true
	}

	return el.Err()
}

type GroupSpec struct {
	Name  string     `json:"name"`
	Rooms []RoomSpec `json:"rooms"`
}

type RoomSpec struct {
	Name          string         `json:"name"`
	Game          bool           `json:"game"`
	Hidden        bool           `json:"hidden"`
	Password      bool           `json:"password"`
	MaxUsers      int16          `json:"max_users"`
	MaxSpectators int16          `json:"max_spectators"`
	Variables     []VariableSpec `json:"variables"`
}

// VariableSpec is one room variable. The value is any JSON scalar or a
// string array; dynamic variables name a provider instead of a value.
type VariableSpec struct {
	Name       string          `json:"name"`
	Value      json.RawMessage `json:"value,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Private    bool            `json:"private"`
	Persistent bool            `json:"persistent"`
}

// valueFromJSON converts a JSON value into its wire representation.
func valueFromJSON(raw json.RawMessage) (sfs.Value, error) {
	if len(raw) == 0 {
		return sfs.Null(), nil
	}

	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.Null:
		return sfs.Null(), nil
	case gjson.True:
		return sfs.Bool(true), nil
	case gjson.False:
		return sfs.Bool(false), nil
	case gjson.String:
		return sfs.String(v.String()), nil
	case gjson.Number:
		if v.Num == float64(int64(v.Num)) {
			return sfs.Number(int64(v.Num)), nil
		}
		return sfs.Double(v.Num), nil
	case gjson.JSON:
		if !v.IsArray() {
			return sfs.Null(), fmt.Errorf("objects are not supported as variable values")
		}
		var items []string
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				return sfs.Null(), fmt.Errorf("variable arrays may only hold strings")
			}
			items = append(items, item.String())
		}
		return sfs.StringArray(items), nil
	default:
		return sfs.Null(), fmt.Errorf("unsupported variable value %s", raw)
	}
}
