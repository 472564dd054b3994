package system

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-log"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// Compression threshold advertised to clients during the handshake.
const compressionThreshold = 2048

// HandshakeRequest is the first packet every client sends.
type HandshakeRequest struct {
	APIVersion string
	ClientType string
}

func (p *HandshakeRequest) ID() int16         { return 0 }
func (p *HandshakeRequest) Synchronous() bool { return true }

func (p *HandshakeRequest) Parse(d *sfs.PacketData) error {
	api, err := d.Payload.GetString("api")
	if err != nil {
		return err
	}
	client, err := d.Payload.GetString("cl")
	if err != nil {
		return err
	}
	p.APIVersion = api
	p.ClientType = client
	return nil
}

func (p *HandshakeRequest) Build(d *sfs.PacketData) error {
	d.Payload.SetString("api", p.APIVersion)
	d.Payload.SetString("cl", p.ClientType)
	return nil
}

// HandshakeResponse carries the session token and transport limits.
type HandshakeResponse struct {
	SessionToken         string
	CompressionThreshold int32
	MaxMessageSize       int32
}

func (p *HandshakeResponse) ID() int16 { return 0 }

func (p *HandshakeResponse) Build(d *sfs.PacketData) error {
	d.Payload.SetString("tk", p.SessionToken)
	d.Payload.SetInt("ct", p.CompressionThreshold)
	d.Payload.SetInt("ms", p.MaxMessageSize)
	return nil
}

func (p *HandshakeResponse) Parse(d *sfs.PacketData) error {
	tk, err := d.Payload.GetString("tk")
	if err != nil {
		return err
	}
	p.SessionToken = tk
	p.CompressionThreshold, _ = d.Payload.GetInt("ct")
	p.MaxMessageSize, _ = d.Payload.GetInt("ms")
	return nil
}

// Handshaker answers handshake packets. It implements
// transport.Handshaker; any other first packet drops the connection.
type Handshaker struct {
	secret []byte
}

func NewHandshaker(secret []byte) *Handshaker {
	return &Handshaker{
		secret: secret,
	}
}

func (h *Handshaker) Handshake(ctx context.Context, s *transport.Session, first *sfs.PacketData) error {
	req := &HandshakeRequest{}
	if first.Channel != ChannelID || first.PacketID != req.ID() {
		return fmt.Errorf("unexpected first packet %d:%d", first.Channel, first.PacketID)
	}
	if err := req.Parse(first); err != nil {
		return fmt.Errorf("parsing handshake: %w", err)
	}

	log.GetLogger(ctx).Debugf("client %s connected with a %s client, API %s", s.RemoteAddr(), req.ClientType, req.APIVersion)

	resp := &HandshakeResponse{
		SessionToken:         h.signSessionToken(s.Token()),
		CompressionThreshold: compressionThreshold,
		MaxMessageSize:       math.MaxInt32,
	}

	d := sfs.NewPacketData(ChannelID, resp.ID())
	if err := resp.Build(d); err != nil {
		return err
	}
	return s.Send(d)
}

// signSessionToken wraps the session identifier in a signed web token
// so reconnect flows can trust it.
func (h *Handshaker) signSessionToken(sessionID string) string {
	enc := base64.RawURLEncoding

	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := enc.EncodeToString(fmt.Appendf(nil,
		`{"iat":%d,"jti":%q,"iss":"MMO","sub":"MMO_SESSION","uuid":%q}`,
		time.Now().Unix(), uuid.NewString(), sessionID))

	body := header + "." + claims
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(body))
	return body + "." + enc.EncodeToString(mac.Sum(nil))
}
