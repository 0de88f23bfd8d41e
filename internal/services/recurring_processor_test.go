package services

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"saldo/internal/core"
)

func TestRecurringProcessor_Process(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewRecurringProcessor(seqIDs(), logger)

	broken := rent()
	broken.ID = "rt-broken"
	broken.AmountHistory = nil

	existing := core.Transaction{ID: "t0", Type: core.Income, Amount: core.Money{Cents: 500000}, Description: "Salário", Date: core.NewDate(2024, time.March, 1)}
	snap := core.Snapshot{
		Transactions:       []core.Transaction{existing},
		RecurringTemplates: []core.RecurringTemplate{rent(), broken},
	}

	out, created := p.Process(context.Background(), snap, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))

	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	if len(out.Transactions) != 3 || out.Transactions[0].ID != "t0" {
		t.Fatalf("Transactions = %+v", out.Transactions)
	}
	if len(snap.Transactions) != 1 {
		t.Fatal("input snapshot was modified")
	}
	if out.RecurringTemplates[0].LastInstance == nil {
		t.Error("watermark not advanced")
	}
	if !strings.Contains(buf.String(), "template_id=rt-broken") {
		t.Errorf("expected warning for rt-broken, log was:\n%s", buf.String())
	}
}

func TestRecurringProcessor_NothingDue(t *testing.T) {
	p := NewRecurringProcessor(nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	snap := core.Snapshot{}
	out, created := p.Process(context.Background(), snap, time.Now())
	if created != 0 || len(out.Transactions) != 0 {
		t.Fatalf("Process() on empty snapshot created %d", created)
	}
}
