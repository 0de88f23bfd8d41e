package storage

import (
	"context"
	"log/slog"

	"saldo/internal/core"
)

// Gateway loads and saves the full application state as one blob.
type Gateway struct {
	kv     KV
	logger *slog.Logger
}

func NewGateway(kv KV, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{kv: kv, logger: logger}
}

// Load reads and migrates the persisted state. A missing blob is not an
// error: it yields an empty snapshot seeded with default categories.
func (g *Gateway) Load(ctx context.Context) (core.Snapshot, error) {
	data, _, err := g.kv.Get(ctx, StateKey)
	if err != nil {
		return core.Snapshot{}, &PersistenceError{Op: OpLoad, Err: err}
	}
	dec, err := Decode(data)
	if err != nil {
		return core.Snapshot{}, &PersistenceError{Op: OpLoad, Err: err}
	}
	for _, w := range dec.Warnings {
		g.logger.WarnContext(ctx, "Dropping unreadable record", "error", w)
	}
	g.logger.InfoContext(ctx, "State loaded",
		"transactions", len(dec.Snapshot.Transactions),
		"templates", len(dec.Snapshot.RecurringTemplates),
		"categories", len(dec.Snapshot.Categories),
		"seeded_categories", dec.Seeded)
	return dec.Snapshot, nil
}

// Save replaces the persisted state with snap.
func (g *Gateway) Save(ctx context.Context, snap core.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return &PersistenceError{Op: OpSave, Err: err}
	}
	if err := g.kv.Put(ctx, StateKey, data); err != nil {
		return &PersistenceError{Op: OpSave, Err: err}
	}
	return nil
}

// Clear removes the persisted state. The onboarding flag is kept.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.kv.Delete(ctx, StateKey); err != nil {
		return &PersistenceError{Op: OpClear, Err: err}
	}
	return nil
}

func (g *Gateway) Onboarded(ctx context.Context) (bool, error) {
	v, ok, err := g.kv.Get(ctx, OnboardedKey)
	if err != nil {
		return false, &PersistenceError{Op: OpLoad, Err: err}
	}
	return ok && string(v) == "true", nil
}

func (g *Gateway) SetOnboarded(ctx context.Context) error {
	if err := g.kv.Put(ctx, OnboardedKey, []byte("true")); err != nil {
		return &PersistenceError{Op: OpSave, Err: err}
	}
	return nil
}
