package providers

import (
	"context"
	"strconv"

	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-mmo/internal/transport"
)

// OnlineCountKey is the dynamic variable key for the connected session
// count.
const OnlineCountKey = "mmo.players.online"

// OnlineCountSource reports the number of connected sessions.
type OnlineCountSource struct {
	server *transport.Server
}

func NewOnlineCountSource(server *transport.Server) *OnlineCountSource {
	return &OnlineCountSource{server: server}
}

func (s *OnlineCountSource) Key() string { return OnlineCountKey }

func (s *OnlineCountSource) Value(ctx context.Context) (sfs.Value, error) {
	return sfs.Int(int32(len(s.server.Sessions()))), nil
}

// KVSource reads a dynamic variable value from the shared key/value
// store. Missing keys resolve to null so rooms can reference values
// that appear later.
type KVSource struct {
	container services.KVContainer
	key       string
	valueKey  string
}

// NewKVSource reads valueKey from the named container under the
// store's shared scope and publishes it as key.
func NewKVSource(kv services.KVStore, scope, container, key, valueKey string) *KVSource {
	return &KVSource{
		container: kv.Container(scope).Child(container),
		key:       key,
		valueKey:  valueKey,
	}
}

func (s *KVSource) Key() string { return s.key }

func (s *KVSource) Value(ctx context.Context) (sfs.Value, error) {
	v, ok, err := s.container.GetString(ctx, s.valueKey)
	if err != nil {
		return sfs.Null(), err
	}
	if !ok {
		return sfs.Null(), nil
	}

	// Stored values are untyped strings; numeric ones go out as
	// numbers.
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return sfs.Long(n), nil
	}
	return sfs.String(v), nil
}
