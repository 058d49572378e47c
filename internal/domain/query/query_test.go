package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/domain/constraint"
)

func TestNew_Valid(t *testing.T) {
	q, err := New("  homes with a pool  ", 20, constraint.HardFilters{}, true, "listings")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Text() != "homes with a pool" {
		t.Errorf("expected trimmed text, got %q", q.Text())
	}
	if q.Size() != 20 {
		t.Errorf("Size() = %d", q.Size())
	}
	if !q.MultiQuery() {
		t.Error("expected multi-query flag")
	}
	if q.Collection() != "listings" {
		t.Errorf("Collection() = %q", q.Collection())
	}
}

func TestNew_SizeDefaults(t *testing.T) {
	q, err := New("pool", 0, constraint.HardFilters{}, false, "listings")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Size() != DefaultSize {
		t.Errorf("expected default size %d, got %d", DefaultSize, q.Size())
	}
}

func TestNew_SizeClamped(t *testing.T) {
	q, err := New("pool", 500, constraint.HardFilters{}, false, "listings")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Size() != MaxSize {
		t.Errorf("expected clamp to %d, got %d", MaxSize, q.Size())
	}
}

func TestNew_Invalid(t *testing.T) {
	lo, hi := 500000.0, 200000.0

	tests := []struct {
		name       string
		text       string
		size       int
		filters    constraint.HardFilters
		collection string
	}{
		{name: "empty text", text: "   ", collection: "listings"},
		{name: "text too long", text: strings.Repeat("a", MaxTextLength+1), collection: "listings"},
		{name: "negative size", text: "pool", size: -1, collection: "listings"},
		{name: "missing collection", text: "pool"},
		{
			name:       "inverted price range",
			text:       "pool",
			filters:    constraint.HardFilters{PriceMin: &lo, PriceMax: &hi},
			collection: "listings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.text, tt.size, tt.filters, false, tt.collection)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}
