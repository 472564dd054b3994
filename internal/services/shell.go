package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ShellCommand is one command runnable from the chat prompt. Output
// lines go through the out callback.
type ShellCommand struct {
	Name        string
	Description string
	Level       PermissionLevel
	Run         func(ctx context.Context, sc *ShellContext, args []string, out func(string)) error
}

// CommandShell holds the command registry shared by all sessions.
type CommandShell struct {
	mu       sync.Mutex
	commands map[string]*ShellCommand
}

func NewCommandShell() *CommandShell {
	s := &CommandShell{
		commands: make(map[string]*ShellCommand),
	}
	s.Register(&ShellCommand{
		Name:        "help",
		Description: "lists available commands",
		Level:       LevelGuest,
		Run: func(ctx context.Context, sc *ShellContext, args []string, out func(string)) error {
			for _, c := range s.visibleCommands(sc.account) {
				out(fmt.Sprintf("%s - %s", c.Name, c.Description))
			}
			return nil
		},
	})
	return s
}

func (s *CommandShell) Register(c *ShellCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[c.Name] = c
}

// NewContext builds a per-account shell context.
func (s *CommandShell) NewContext(account *Account) *ShellContext {
	return &ShellContext{
		shell:   s,
		account: account,
	}
}

func (s *CommandShell) visibleCommands(a *Account) []*ShellCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ShellCommand
	for _, c := range s.commands {
		if a.Level >= c.Level {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CommandShell) lookup(name string) *ShellCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands[name]
}

// ShellContext runs commands for one account.
type ShellContext struct {
	shell   *CommandShell
	account *Account
}

func (sc *ShellContext) Account() *Account { return sc.account }

// Run parses and executes one command line, writing output through out.
func (sc *ShellContext) Run(ctx context.Context, line string, out func(string)) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	cmd := sc.shell.lookup(fields[0])
	if cmd == nil || sc.account.Level < cmd.Level {
		out(fmt.Sprintf("Unknown command: %s", fields[0]))
		return
	}

	if err := cmd.Run(ctx, sc, fields[1:], out); err != nil {
		out(fmt.Sprintf("Command failed: %s", err))
	}
}
