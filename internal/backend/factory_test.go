package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"saldo/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/x.db", AMQPExchange: "saldo", AMQPQueue: "q"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "/tmp/x.db" || got.AMQPQueue != "q" {
		t.Errorf("FromAppConfig() = %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) error = nil")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("FromAppConfig(sheets) error = nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "path is required"},
		{"unknown", Config{Type: "sheets"}, "invalid backend type"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "saldo.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			if res.Notifier != nil {
				t.Error("Notifier set without AMQP URL")
			}
			snap, err := res.Gateway.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if err := res.Gateway.Save(ctx, snap); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		})
	}
}
