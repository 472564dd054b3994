package chat

import (
	"fmt"
	"strconv"

	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/sfs"
)

// extensionName is the client extension chat messages are addressed to.
const extensionName = "che"

// ChatMessage is the serverbound chat submission. A target group id
// marks it as clan chat.
type ChatMessage struct {
	Message    string
	ClanID     string
	IsClanChat bool
}

func (m *ChatMessage) MessageID() string             { return "SCM" }
func (m *ChatMessage) ExtensionName() string         { return extensionName }
func (m *ChatMessage) New() channel.ExtensionMessage { return &ChatMessage{} }

func (m *ChatMessage) Parse(p *sfs.Payload) error {
	msg, err := p.GetString("chm")
	if err != nil {
		return err
	}
	m.Message = msg
	if p.Has("tgid") {
		clan, err := p.GetString("tgid")
		if err != nil {
			return err
		}
		m.IsClanChat = true
		m.ClanID = clan
	}
	return nil
}

func (m *ChatMessage) Build(p *sfs.Payload) error {
	p.SetInt("cty", 1)
	p.SetString("chm", m.Message)
	if m.IsClanChat {
		p.SetString("tgid", m.ClanID)
	}
	return nil
}

// ChatEcho confirms a chat submission back to its sender.
type ChatEcho struct {
	Message    string
	ClanID     string
	IsClanChat bool
}

func (m *ChatEcho) MessageID() string             { return "SCA" }
func (m *ChatEcho) ExtensionName() string         { return extensionName }
func (m *ChatEcho) New() channel.ExtensionMessage { return &ChatEcho{} }

func (m *ChatEcho) Parse(p *sfs.Payload) error {
	arr, err := p.GetStringArray("arr")
	if err != nil {
		return err
	}
	if len(arr) < 6 {
		return fmt.Errorf("chat echo needs 6 fields, got %d", len(arr))
	}
	m.Message = arr[3]
	if arr[4] != "" {
		m.IsClanChat = true
		m.ClanID = arr[4]
	}
	return nil
}

func (m *ChatEcho) Build(p *sfs.Payload) error {
	clan := ""
	if m.IsClanChat {
		clan = m.ClanID
	}
	p.SetStringArray("arr", []string{"SCA", "-1", "1", m.Message, clan, "1"})
	return nil
}

// ChatPost delivers a chat line to a recipient. System-authored lines
// carry an empty user id.
type ChatPost struct {
	Message     string
	UserID      string
	ClanID      string
	DisplayName string
	IsClanChat  bool
}

func (m *ChatPost) MessageID() string             { return "CMR" }
func (m *ChatPost) ExtensionName() string         { return extensionName }
func (m *ChatPost) New() channel.ExtensionMessage { return &ChatPost{} }

func (m *ChatPost) Parse(p *sfs.Payload) error {
	arr, err := p.GetStringArray("arr")
	if err != nil {
		return err
	}
	if len(arr) < 8 {
		return fmt.Errorf("chat post needs 8 fields, got %d", len(arr))
	}
	m.UserID = arr[2]
	m.Message = arr[4]
	if arr[5] != "" {
		m.IsClanChat = true
		m.ClanID = arr[5]
	}
	m.DisplayName = arr[7]
	return nil
}

func (m *ChatPost) Build(p *sfs.Payload) error {
	clan := ""
	if m.IsClanChat {
		clan = m.ClanID
	}
	p.SetStringArray("arr", []string{"CMR", "-1", m.UserID, "1", m.Message, clan, "1", m.DisplayName})
	return nil
}

// ModerationNotice tells a client it has been silenced or unsilenced.
type ModerationNotice struct {
	Message     string
	Mute        bool
	MuteMinutes int
}

func (m *ModerationNotice) MessageID() string             { return "SMM" }
func (m *ModerationNotice) ExtensionName() string         { return extensionName }
func (m *ModerationNotice) New() channel.ExtensionMessage { return &ModerationNotice{} }

func (m *ModerationNotice) Parse(p *sfs.Payload) error {
	arr, err := p.GetStringArray("arr")
	if err != nil {
		return err
	}
	if len(arr) < 4 {
		return fmt.Errorf("moderation notice needs 4 fields, got %d", len(arr))
	}
	m.Mute = arr[2] == "SILENCE"
	m.Message = arr[3]
	if m.Mute && len(arr) > 4 {
		minutes, err := strconv.Atoi(arr[4])
		if err != nil {
			return fmt.Errorf("parsing mute minutes: %w", err)
		}
		m.MuteMinutes = minutes
	}
	return nil
}

func (m *ModerationNotice) Build(p *sfs.Payload) error {
	arr := []string{"SMM", "-1", "UNSILENCED", m.Message}
	if m.Mute {
		arr[2] = "SILENCE"
		arr = append(arr, strconv.Itoa(m.MuteMinutes))
	}
	p.SetStringArray("arr", arr)
	return nil
}
