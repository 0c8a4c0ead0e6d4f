package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"operator_email", "ops@example.com", "visitors", 12, "X-Auth-Token", "abc", "dangling"})
	if len(kv) != 7 {
		t.Fatalf("len = %d, want 7", len(kv))
	}
	if kv[1] != redacted {
		t.Errorf("email value = %v, want redacted", kv[1])
	}
	if kv[3] != 12 {
		t.Errorf("visitors value = %v, want 12", kv[3])
	}
	if kv[5] != redacted {
		t.Errorf("token value = %v, want redacted", kv[5])
	}
	if kv[6] != "dangling" {
		t.Errorf("odd trailing key = %v, want kept", kv[6])
	}
}

func TestLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := (&Logger{SugaredLogger: zap.New(core).Sugar()}).Component("store")

	l.Info("loaded", "players", 3, "email", "a@b.c")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "store" {
		t.Errorf("component = %v, want store", fields["component"])
	}
	if fields["players"] != int64(3) {
		t.Errorf("players = %v (%T), want 3", fields["players"], fields["players"])
	}
	if fields["email"] != redacted {
		t.Errorf("email = %v, want redacted", fields["email"])
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.Debug("hello")
	}
	Nop().Error("ignored", "k", "v")
}
