package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/transport"
)

// RegisterShellCommands adds the built-in chat shell commands.
func RegisterShellCommands(shell *services.CommandShell, sv *transport.Server) {
	shell.Register(&services.ShellCommand{
		Name:        "who",
		Description: "lists online players",
		Level:       services.LevelPlayer,
		Run: func(ctx context.Context, sc *services.ShellContext, args []string, out func(string)) error {
			count := 0
			for _, s := range sv.Sessions() {
				plr := player.FromSession(s)
				if plr == nil {
					continue
				}
				count++
				out(fmt.Sprintf("%s (%s)", plr.Save().DisplayName, plr.Zone().Name()))
			}
			out(fmt.Sprintf("%d online", count))
			return nil
		},
	})

	shell.Register(&services.ShellCommand{
		Name:        "kick",
		Description: "disconnects a player by display name",
		Level:       services.LevelModerator,
		Run: func(ctx context.Context, sc *services.ShellContext, args []string, out func(string)) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: kick <name>")
			}

			for _, s := range sv.Sessions() {
				plr := player.FromSession(s)
				if plr == nil {
					continue
				}
				if strings.EqualFold(plr.Save().DisplayName, args[0]) {
					s.CloseWithReason(transport.KickReason(sc.Account().Username))
					out(fmt.Sprintf("kicked %s", plr.Save().DisplayName))
					return nil
				}
			}
			return fmt.Errorf("no player named %s", args[0])
		},
	})
}
