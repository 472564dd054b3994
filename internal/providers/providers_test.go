package providers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-mmo/internal/services"
	"github.com/pixil98/go-mmo/internal/sfs"
	"github.com/pixil98/go-testutil"
)

type staticSource struct {
	key string
	val sfs.Value
	err error

	calls int
}

func (s *staticSource) Key() string { return s.key }
func (s *staticSource) Value(ctx context.Context) (sfs.Value, error) {
	s.calls++
	return s.val, s.err
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	reg.set("a", sfs.Int(7))

	v, ok := reg.Resolve("a")
	testutil.AssertEqual(t, "found", ok, true)
	n, _ := v.AsInt()
	testutil.AssertEqual(t, "value", n, int32(7))

	_, ok = reg.Resolve("missing")
	testutil.AssertEqual(t, "missing", ok, false)
}

func TestRefresher_Tick(t *testing.T) {
	reg := NewRegistry()
	good := &staticSource{key: "good", val: sfs.String("up")}
	bad := &staticSource{key: "bad", err: fmt.Errorf("backend down")}

	r := NewRefresher(reg, []Source{good, bad})
	r.Tick(context.Background())

	v, ok := reg.Resolve("good")
	testutil.AssertEqual(t, "good resolved", ok, true)
	s, _ := v.AsString()
	testutil.AssertEqual(t, "good value", s, "up")

	// A failing source leaves no value behind.
	_, ok = reg.Resolve("bad")
	testutil.AssertEqual(t, "bad resolved", ok, false)
}

func TestRefresher_StartPrimesAndStops(t *testing.T) {
	reg := NewRegistry()
	src := &staticSource{key: "k", val: sfs.Bool(true)}
	r := NewRefresher(reg, []Source{src}, WithTickLength(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	// The first refresh happens before the first tick.
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := reg.Resolve("k"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("registry was not primed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestKVSource(t *testing.T) {
	ctx := context.Background()
	kv := services.NewMemoryKVStore()

	tests := map[string]struct {
		stored  string
		absent  bool
		expTag  sfs.Tag
		expLong int64
		expStr  string
	}{
		"numeric value": {
			stored:  "1735689600000",
			expTag:  sfs.TagLong,
			expLong: 1735689600000,
		},
		"string value": {
			stored: "open",
			expTag: sfs.TagString,
			expStr: "open",
		},
		"missing value": {
			absent: true,
			expTag: sfs.TagNull,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			src := NewKVSource(kv, "shared", name, "rooms.any.vars."+name, "value")
			if !tt.absent {
				err := kv.Container("shared").Child(name).SetString(ctx, "value", tt.stored)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			v, err := src.Value(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "tag", v.Tag(), tt.expTag)
			switch tt.expTag {
			case sfs.TagLong:
				n, _ := v.AsLong()
				testutil.AssertEqual(t, "long", n, tt.expLong)
			case sfs.TagString:
				s, _ := v.AsString()
				testutil.AssertEqual(t, "string", s, tt.expStr)
			}
		})
	}
}
