package services

import (
	"context"
	"fmt"
	"slices"
)

// PermissionLevel orders account ranks from guests up to operators.
type PermissionLevel int

const (
	LevelGuest PermissionLevel = iota
	LevelPlayer
	LevelTrialModerator
	LevelModerator
	LevelAdministrator
	LevelDeveloper
	LevelOperator
)

func (l PermissionLevel) String() string {
	switch l {
	case LevelGuest:
		return "guest"
	case LevelPlayer:
		return "player"
	case LevelTrialModerator:
		return "trial-moderator"
	case LevelModerator:
		return "moderator"
	case LevelAdministrator:
		return "administrator"
	case LevelDeveloper:
		return "developer"
	case LevelOperator:
		return "operator"
	default:
		return "unknown"
	}
}

func (l *PermissionLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "guest":
		*l = LevelGuest
	case "player":
		*l = LevelPlayer
	case "trial-moderator":
		*l = LevelTrialModerator
	case "moderator":
		*l = LevelModerator
	case "administrator":
		*l = LevelAdministrator
	case "developer":
		*l = LevelDeveloper
	case "operator":
		*l = LevelOperator
	default:
		return fmt.Errorf("unknown permission level: %s", text)
	}
	return nil
}

// WireRank collapses the level into the four-value privilege rank the
// client understands.
func (l PermissionLevel) WireRank() int16 {
	switch {
	case l <= LevelGuest:
		return 0
	case l == LevelPlayer:
		return 1
	case l == LevelTrialModerator || l == LevelModerator:
		return 2
	default:
		return 3
	}
}

// Account is a resolved player account.
type Account struct {
	ID               string
	Username         string
	Guest            bool
	ChatEnabled      bool
	StrictChatFilter bool
	Level            PermissionLevel
	Capabilities     []string
}

func (a *Account) HasCapability(c string) bool {
	return slices.Contains(a.Capabilities, c)
}

// Save is one save slot under an account. The save is what other
// players see.
type Save struct {
	ID          string
	DisplayName string
}

// TokenInfo is the claim set carried by a decoded login token.
type TokenInfo struct {
	AccountID    string
	SaveID       string
	Capabilities []string
}

// TokenValidator checks a decoded login token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*TokenInfo, error)
}

// AccountProvider resolves accounts and their saves.
type AccountProvider interface {
	Account(ctx context.Context, id string) (*Account, error)
	Save(ctx context.Context, accountID, saveID string) (*Save, error)
}
