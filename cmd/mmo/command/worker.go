package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/chat"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/providers"
	"github.com/pixil98/go-mmo/internal/relay"
	"github.com/pixil98/go-mmo/internal/servertime"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/system"
	"github.com/pixil98/go-mmo/internal/transport"
	"github.com/pixil98/go-mmo/internal/uservars"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load game data
	directory, err := cfg.Storage.BuildDirectory()
	if err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	zoneManager, err := cfg.Storage.BuildZoneManager()
	if err != nil {
		return nil, fmt.Errorf("creating zone manager: %w", err)
	}

	hooks := events.NewHooks()
	kv := cfg.Redis.BuildKVStore()
	shell := services.NewCommandShell()
	registry := providers.NewRegistry()

	deps := &system.Deps{
		Zones:    zoneManager,
		Accounts: directory,
		Tokens:   services.NewJsonTokenValidator(directory),
		Perms:    services.NewLevelPermissions(cfg.Permissions),
		Hooks:    hooks,
		Resolver: registry,
	}
	chatDeps := &chat.Deps{
		Filter: cfg.Chat.BuildFilter(),
		KV:     kv,
		Shell:  shell,
		Hooks:  hooks,
	}
	varsDeps := &uservars.Deps{
		Hooks: hooks,
	}

	// Each session gets the system channel plus one extension channel
	// carrying chat, user variables, and time sync.
	server := transport.NewServer(
		system.NewHandshaker([]byte(cfg.Handshake.Secret)),
		func(s *transport.Session) transport.PacketHandler {
			ext := channel.NewExtensionChannel(s)
			chat.Attach(ext, chatDeps)
			uservars.Attach(ext, varsDeps)
			servertime.Attach(ext, nil)
			return channel.NewMux(system.NewChannel(s, deps), ext.Channel())
		},
	)
	deps.Server = server
	chatDeps.Server = server
	varsDeps.Server = server

	system.RegisterShellCommands(shell, server)
	system.RegisterDisconnects(server, hooks)
	uservars.RegisterJoinSync(hooks)
	if cfg.AutoJoin.Room != "" {
		deps.PostJoin = autoJoin(deps, cfg.AutoJoin)
	}

	// Dynamic variable providers
	sources := []providers.Source{providers.NewOnlineCountSource(server)}
	for _, p := range cfg.Providers.KV {
		sources = append(sources, providers.NewKVSource(kv, p.Scope, p.Container, p.Key, p.ValueKey))
	}
	refresher, err := cfg.Providers.BuildRefresher(registry, sources)
	if err != nil {
		return nil, fmt.Errorf("creating provider refresher: %w", err)
	}

	// Event relay
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	relay.New(natsServer, hooks, zoneManager)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		listener, err := l.BuildListener(server)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = listener
	}

	// Create a worker list
	return service.WorkerList{
		"nats":      natsServer,
		"providers": refresher,
		"listeners": &listeners,
	}, nil
}

// autoJoin seats freshly logged-in players in the configured room of
// their zone.
func autoJoin(deps *system.Deps, cfg AutoJoinConfig) func(ctx context.Context, s *transport.Session, plr *player.Player) error {
	return func(ctx context.Context, s *transport.Session, plr *player.Player) error {
		group := plr.Zone().Group(cfg.Group)
		if group == nil {
			log.GetLogger(ctx).Warnf("zone %s has no group %s to auto-join", plr.Zone().Name(), cfg.Group)
			return nil
		}
		room := group.Room(cfg.Room)
		if room == nil {
			log.GetLogger(ctx).Warnf("group %s has no room %s to auto-join", cfg.Group, cfg.Room)
			return nil
		}
		return system.JoinRoom(ctx, deps, s, plr, room)
	}
}
