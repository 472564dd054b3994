package assets

import (
	"context"
	"fmt"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/storage"
	"github.com/pixil98/go-mmo/internal/zones"
)

// Directory resolves accounts and saves from their asset stores.
type Directory struct {
	accounts storage.Storer[*AccountSpec]
	saves    storage.Storer[*SaveSpec]
}

func NewDirectory(accounts storage.Storer[*AccountSpec], saves storage.Storer[*SaveSpec]) *Directory {
	return &Directory{
		accounts: accounts,
		saves:    saves,
	}
}

func (d *Directory) Account(ctx context.Context, id string) (*services.Account, error) {
	spec := d.accounts.Get(storage.Identifier(id))
	if spec == nil {
		return nil, fmt.Errorf("account %q not found", id)
	}

	return &services.Account{
		ID:               id,
		Username:         spec.Username,
		Guest:            spec.Guest,
		ChatEnabled:      spec.ChatEnabled,
		StrictChatFilter: spec.StrictChatFilter,
		Level:            spec.Level,
		Capabilities:     spec.Capabilities,
	}, nil
}

func (d *Directory) Save(ctx context.Context, accountID, saveID string) (*services.Save, error) {
	spec := d.saves.Get(storage.Identifier(saveID))
	if spec == nil {
		return nil, fmt.Errorf("save %q not found", saveID)
	}
	if spec.Account.Get() != accountID {
		return nil, fmt.Errorf("save %q does not belong to account %q", saveID, accountID)
	}

	return &services.Save{
		ID:          saveID,
		DisplayName: spec.DisplayName,
	}, nil
}

// BuildZones materializes the configured topology into the zone
// registry. Dynamic variables look their values up through the
// resolver at serialization time. A malformed group, room, or variable
// definition is logged and skipped; the rest of the topology still
// loads.
func BuildZones(ctx context.Context, zm *zones.ZoneManager, specs map[storage.Identifier]*ZoneSpec) error {
	logger := log.GetLogger(ctx)

	for id, spec := range specs {
		zone, err := zm.CreateZone(string(id), spec.Active)
		if err != nil {
			return fmt.Errorf("creating zone %q: %w", id, err)
		}

		for _, g := range spec.Groups {
			group, err := zone.AddGroup(g.Name)
			if err != nil {
				logger.Errorf("zone %q: skipping group %q: %s", id, g.Name, err)
				continue
			}

			for _, r := range g.Rooms {
				if r.Name == "" {
					logger.Errorf("zone %q group %q: skipping unnamed room", id, g.Name)
					continue
				}
				room, err := group.AddRoom(r.Name, r.Game, r.Hidden, r.Password, r.MaxUsers, r.MaxSpectators)
				if err != nil {
					logger.Errorf("zone %q group %q: skipping room %q: %s", id, g.Name, r.Name, err)
					continue
				}

				for _, v := range r.Variables {
					if v.Name == "" {
						logger.Errorf("zone %q room %q: skipping unnamed variable", id, r.Name)
						continue
					}
					if v.Provider != "" {
						room.AddVariable(zones.NewDynamicVariable(v.Name, v.Provider, v.Private, v.Persistent))
						continue
					}
					value, err := valueFromJSON(v.Value)
					if err != nil {
						logger.Errorf("zone %q room %q: skipping variable %q: %s", id, r.Name, v.Name, err)
						continue
					}
					room.AddVariable(zones.NewVariable(v.Name, value, v.Private, v.Persistent))
				}
			}
		}
	}
	return nil
}
