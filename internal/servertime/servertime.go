// Package servertime answers client clock sync requests over the
// extension channel.
package servertime

import (
	"context"
	"time"

	"github.com/pixil98/go-mmo/internal/channel"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

const extensionName = "we"

// SyncRequest asks for the server's current time.
type SyncRequest struct{}

func (m *SyncRequest) MessageID() string             { return "DT" }
func (m *SyncRequest) ExtensionName() string         { return extensionName }
func (m *SyncRequest) New() channel.ExtensionMessage { return &SyncRequest{} }

func (m *SyncRequest) Parse(p *sfs.Payload) error { return nil }
func (m *SyncRequest) Build(p *sfs.Payload) error { return nil }

// SyncResponse carries the server's UTC time.
type SyncResponse struct {
	Date string
}

func (m *SyncResponse) MessageID() string             { return "DT" }
func (m *SyncResponse) ExtensionName() string         { return extensionName }
func (m *SyncResponse) New() channel.ExtensionMessage { return &SyncResponse{} }

func (m *SyncResponse) Parse(p *sfs.Payload) error {
	date, err := p.GetString("dt")
	if err != nil {
		return err
	}
	m.Date = date
	return nil
}

func (m *SyncResponse) Build(p *sfs.Payload) error {
	p.SetString("dt", m.Date)
	return nil
}

// Attach registers the time sync handler on a session's extension
// channel. The clock is injectable for tests; nil uses the wall clock.
func Attach(e *channel.ExtensionChannel, now func() time.Time) {
	if now == nil {
		now = time.Now
	}

	e.Register(&SyncRequest{})
	e.Handle(channel.TypedExtension(func(ctx context.Context, s *transport.Session, msg *SyncRequest) (bool, error) {
		return true, e.Send(&SyncResponse{
			Date: now().UTC().Format(time.RFC3339),
		})
	}))
}
