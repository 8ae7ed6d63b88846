package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/config"
	"financas/internal/core"
)

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "f.db")}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "unknown type", config: Config{Type: "sheets"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(context.Background(), tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()
			if res.Publisher != nil {
				t.Error("publisher should be nil without AMQP_URL")
			}

			ctx := context.Background()
			id, err := res.Store.AddFixedCost(ctx, core.FixedCost{OwnerID: "u1", Name: "Aluguel", Amount: decimal.NewFromInt(500)})
			if err != nil {
				t.Fatalf("AddFixedCost: %v", err)
			}
			got, err := res.Store.GetFixedCost(ctx, id)
			if err != nil || got.Name != "Aluguel" {
				t.Errorf("GetFixedCost = %+v, %v", got, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.AMQPURL != "amqp://h" {
		t.Errorf("cfg = %+v", cfg)
	}
}
