package cart

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/stock"
)

func buildCart(t *testing.T, lines map[string]int32) domain.Cart {
	t.Helper()
	now := time.Now().UTC()
	c := domain.NewCart("guest-1", now, 24*time.Hour)
	for id, qty := range lines {
		if err := c.AddLine(id, "product "+id, 1000, qty, now); err != nil {
			t.Fatalf("add line failed: %v", err)
		}
	}
	return c
}

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		stock        map[string]int32
		requested    map[string]int32
		wantLines    map[string]int32
		wantWarnings int
	}{
		{
			name:         "all available",
			stock:        map[string]int32{"p-1": 10, "p-2": 10},
			requested:    map[string]int32{"p-1": 2, "p-2": 5},
			wantLines:    map[string]int32{"p-1": 2, "p-2": 5},
			wantWarnings: 0,
		},
		{
			name:         "partial stock clamps",
			stock:        map[string]int32{"p-1": 3},
			requested:    map[string]int32{"p-1": 5},
			wantLines:    map[string]int32{"p-1": 3},
			wantWarnings: 1,
		},
		{
			name:         "out of stock drops line",
			stock:        map[string]int32{"p-1": 0, "p-2": 4},
			requested:    map[string]int32{"p-1": 2, "p-2": 4},
			wantLines:    map[string]int32{"p-2": 4},
			wantWarnings: 1,
		},
		{
			name:         "unknown product drops line",
			stock:        map[string]int32{},
			requested:    map[string]int32{"ghost": 1},
			wantLines:    map[string]int32{},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := stock.NewLedger()
			for id, qty := range tt.stock {
				if err := ledger.SetStock(ctx, id, qty); err != nil {
					t.Fatalf("seed stock failed: %v", err)
				}
			}

			validator := NewValidator(ledger)
			corrected, warnings, err := validator.Validate(ctx, buildCart(t, tt.requested))
			if err != nil {
				t.Fatalf("validate failed: %v", err)
			}

			if len(warnings) != tt.wantWarnings {
				t.Fatalf("expected %d warnings, got %d: %+v", tt.wantWarnings, len(warnings), warnings)
			}
			if len(corrected.Lines) != len(tt.wantLines) {
				t.Fatalf("expected %d lines, got %d", len(tt.wantLines), len(corrected.Lines))
			}
			for id, qty := range tt.wantLines {
				line, ok := corrected.Line(id)
				if !ok {
					t.Fatalf("expected line for %s", id)
				}
				if line.Qty != qty {
					t.Fatalf("product %s: expected qty %d, got %d", id, qty, line.Qty)
				}
			}
		})
	}
}

func TestValidator_PartialStockWarningCarriesRequested(t *testing.T) {
	ctx := context.Background()
	ledger := stock.NewLedger()
	if err := ledger.SetStock(ctx, "p-1", 3); err != nil {
		t.Fatalf("seed stock failed: %v", err)
	}

	validator := NewValidator(ledger)
	_, warnings, err := validator.Validate(ctx, buildCart(t, map[string]int32{"p-1": 5}))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	w := warnings[0]
	if w.Reason != domain.StockWarningPartialStock {
		t.Fatalf("expected partial_stock reason, got %s", w.Reason)
	}
	if w.Requested != 5 || w.Granted != 3 {
		t.Fatalf("expected requested=5 granted=3, got %d/%d", w.Requested, w.Granted)
	}
}

// Свойство: валидатор никогда не увеличивает количество.
func TestValidator_NeverInflates(t *testing.T) {
	ctx := context.Background()
	ledger := stock.NewLedger()
	if err := ledger.SetStock(ctx, "p-1", 100); err != nil {
		t.Fatalf("seed stock failed: %v", err)
	}

	original := buildCart(t, map[string]int32{"p-1": 2})
	validator := NewValidator(ledger)
	corrected, _, err := validator.Validate(ctx, original)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	for _, line := range corrected.Lines {
		orig, ok := original.Line(line.ProductID)
		if !ok {
			t.Fatalf("corrected cart introduced line %s", line.ProductID)
		}
		if line.Qty > orig.Qty {
			t.Fatalf("product %s: corrected qty %d exceeds requested %d", line.ProductID, line.Qty, orig.Qty)
		}
	}
}
