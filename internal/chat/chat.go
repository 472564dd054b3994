package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/events"
	"github.com/pixil98/go-mmo/internal/player"
	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/transport"
)

const (
	// commandPrefix routes a chat line to the command shell instead of
	// the chat fan-out.
	commandPrefix = ">"

	// systemSpeaker is the display name on shell output lines.
	systemSpeaker = "[EDGE]"

	instaMuteDuration = 30 * time.Minute
	instaMuteReason   = "Illegal word in chat"

	// shellContextKey holds the per-connection shell context in the
	// session object bag.
	shellContextKey = "chat.shell"
)

// Deps bundles what the chat pipeline needs.
type Deps struct {
	Server *transport.Server
	Filter services.TextFilter
	KV     services.KVStore
	Shell  *services.CommandShell
	Hooks  *events.Hooks
}

// Attach registers the chat pipeline on a session's extension channel.
func Attach(e *channel.ExtensionChannel, deps *Deps) {
	e.Register(&ChatMessage{})
	h := &chatHandler{deps: deps, ch: e}
	e.Handle(channel.TypedExtension(h.handle))
}

type chatHandler struct {
	deps *Deps
	ch   *channel.ExtensionChannel
}

func (h *chatHandler) handle(ctx context.Context, s *transport.Session, msg *ChatMessage) (bool, error) {
	plr := player.FromSession(s)
	if plr == nil {
		return true, nil
	}

	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return true, nil
	}

	if strings.HasPrefix(text, commandPrefix) {
		h.runCommand(ctx, s, plr, strings.TrimSpace(text[len(commandPrefix):]))
		return true, nil
	}

	account := plr.Account()
	if !account.ChatEnabled || account.Guest {
		return true, h.ch.Send(&ModerationNotice{
			Message: "Chat is not enabled for your account",
		})
	}

	res := h.deps.Filter.Filter(text, account.StrictChatFilter)
	moderation := h.deps.KV.Container(account.ID).Child("moderation")
	logger := log.GetLogger(ctx)

	if res.Severity == services.SeverityInstamute {
		muted, _, err := moderation.GetBool(ctx, "isMuted")
		if err != nil {
			logger.Errorf("reading mute state for account %s: %s", account.ID, err)
		}

		// Muting is idempotent: an active mute keeps its expiry.
		if !muted {
			unmute := time.Now().Add(instaMuteDuration).UnixMilli()
			if err := moderation.SetString(ctx, "muteReason", instaMuteReason); err != nil {
				logger.Errorf("storing mute reason for account %s: %s", account.ID, err)
			}
			if err := moderation.SetInt64(ctx, "unmuteTimestamp", unmute); err != nil {
				logger.Errorf("storing mute expiry for account %s: %s", account.ID, err)
			}
			if err := moderation.SetBool(ctx, "isMuted", true); err != nil {
				logger.Errorf("storing mute flag for account %s: %s", account.ID, err)
			}
			logger.Warnf("account %s muted for %s: %s", account.ID, instaMuteDuration, instaMuteReason)
		}
	}

	if notice := h.muteNotice(ctx, moderation); notice != nil {
		return true, h.ch.Send(notice)
	}

	text = res.Text

	// Clan chat is recognized but not yet routed anywhere.
	if msg.IsClanChat {
		return true, nil
	}

	ev := &events.ChatEvent{
		Player:  plr,
		Message: text,
		ClanID:  msg.ClanID,
	}
	if h.deps.Hooks.Chat(ctx, ev) == events.Cancel {
		return true, nil
	}

	logger.Infof("chat: %s: %s", plr.Save().DisplayName, text)

	if err := h.ch.Send(&ChatEcho{Message: text, ClanID: msg.ClanID, IsClanChat: msg.IsClanChat}); err != nil {
		return true, err
	}

	// Deliver to everyone sharing a joined room, refiltered with each
	// recipient's own strictness.
	for _, room := range plr.JoinedRooms() {
		for _, u := range room.Users() {
			if u.SaveID == plr.Save().ID {
				continue
			}
			target := h.deps.Server.SessionByNumericID(u.NumericID)
			if target == nil {
				continue
			}
			recipient := player.FromSession(target)
			if recipient == nil {
				continue
			}

			filtered := h.deps.Filter.FilterString(text, recipient.Account().StrictChatFilter)
			post := &ChatPost{
				Message:     filtered,
				UserID:      plr.Save().ID,
				DisplayName: plr.Save().DisplayName,
			}
			if err := channel.SendExtensionTo(target, post); err != nil {
				logger.Warnf("delivering chat to session %d: %s", u.NumericID, err)
			}
		}
	}
	return true, nil
}

// muteNotice returns the rejection to send when the account is muted,
// or nil when chat may proceed.
func (h *chatHandler) muteNotice(ctx context.Context, moderation services.KVContainer) *ModerationNotice {
	logger := log.GetLogger(ctx)

	muted, _, err := moderation.GetBool(ctx, "isMuted")
	if err != nil {
		logger.Errorf("reading mute state: %s", err)
	}
	if !muted {
		return nil
	}

	unmute := int64(-1)
	if v, ok, err := moderation.GetInt64(ctx, "unmuteTimestamp"); err != nil {
		logger.Errorf("reading mute expiry: %s", err)
	} else if ok {
		unmute = v
	}

	reason := ""
	if v, ok, err := moderation.GetString(ctx, "muteReason"); err != nil {
		logger.Errorf("reading mute reason: %s", err)
	} else if ok && v != "" {
		reason = "\n\nReason: " + v
	}

	now := time.Now().UnixMilli()
	if unmute != -1 && now >= unmute {
		return nil
	}

	notice := &ModerationNotice{Mute: true}
	if unmute != -1 {
		notice.Message = "You have been muted and cannot speak in chats, you will be unmuted in {{bannedtime}}." + reason
		notice.MuteMinutes = int((unmute - now) / 1000 / 60)
	} else {
		notice.Message = "You have been muted and cannot speak in chats." + reason
	}
	return notice
}

// runCommand routes a ">"-prefixed chat line through the session's
// command shell, streaming output back as system chat.
func (h *chatHandler) runCommand(ctx context.Context, s *transport.Session, plr *player.Player, line string) {
	logger := log.GetLogger(ctx)

	shellCtx, _ := s.Object(shellContextKey).(*services.ShellContext)
	if shellCtx == nil {
		shellCtx = h.deps.Shell.NewContext(plr.Account())
		s.SetObject(shellContextKey, shellCtx)
	}

	shellCtx.Run(ctx, line, func(out string) {
		err := h.ch.Send(&ChatPost{
			Message:     out,
			UserID:      "",
			DisplayName: systemSpeaker,
		})
		if err != nil {
			logger.Warnf("sending shell output to session %d: %s", s.NumericID(), err)
		}
	})
}
