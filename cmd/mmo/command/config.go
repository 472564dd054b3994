package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/services"
)

type Config struct {
	Listeners   []ListenerConfig                    `json:"listeners"`
	Handshake   HandshakeConfig                     `json:"handshake"`
	Storage     StorageConfig                       `json:"storage"`
	Nats        NatsConfig                          `json:"nats"`
	Redis       RedisConfig                         `json:"redis"`
	Chat        ChatConfig                          `json:"chat"`
	Providers   ProvidersConfig                     `json:"providers"`
	AutoJoin    AutoJoinConfig                      `json:"auto_join"`
	Permissions map[string]services.PermissionLevel `json:"permissions"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Handshake.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Redis.validate())
	el.Add(c.Chat.validate())
	el.Add(c.Providers.validate())
	el.Add(c.AutoJoin.validate())

	return el.Err()
}

type HandshakeConfig struct {
	Secret string `json:"secret"`
}

func (c *HandshakeConfig) validate() error {
	el := errors.NewErrorList()

	if c.Secret == "" {
		el.Add(fmt.Errorf("handshake secret is required"))
	}

	return el.Err()
}

// AutoJoinConfig names the room players are seated in right after
// login. The group and room are looked up in the zone the player
// logged into. Leave empty to disable automatic joins.
type AutoJoinConfig struct {
	Group string `json:"group"`
	Room  string `json:"room"`
}

func (c *AutoJoinConfig) validate() error {
	el := errors.NewErrorList()

	if (c.Group == "") != (c.Room == "") {
		el.Add(fmt.Errorf("auto_join requires both group and room"))
	}

	return el.Err()
}
