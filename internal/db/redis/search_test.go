package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/openhaus/propsearch/internal/domain/filter"
)

func mustMatch(t *testing.T, key, value string) filter.Condition {
	t.Helper()
	c, err := filter.NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}

func mustRange(t *testing.T, key string, gte, lte *float64) filter.Condition {
	t.Helper()
	r, err := filter.NewRangeFilter(gte, lte)
	if err != nil {
		t.Fatalf("NewRangeFilter: %v", err)
	}
	c, err := filter.NewRange(key, r)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return c
}

func TestBuildFilter_Empty(t *testing.T) {
	if got := buildFilter(filter.Expression{}); got != "" {
		t.Errorf("expected empty filter, got %q", got)
	}
}

func TestBuildFilter_MustConditions(t *testing.T) {
	gte, lte := 200000.0, 500000.0
	expr, err := filter.NewExpression([]filter.Condition{
		mustRange(t, "price", &gte, &lte),
		mustMatch(t, "tags", "pool"),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}

	got := buildFilter(expr)
	want := "@price:[200000 500000] @tags:{pool}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFilter_OpenRange(t *testing.T) {
	gte := 3.0
	expr, err := filter.NewExpression([]filter.Condition{
		mustRange(t, "beds", &gte, nil),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}

	got := buildFilter(expr)
	if got != "@beds:[3 +inf]" {
		t.Errorf("got %q", got)
	}
}

func TestBuildFilter_ShouldAndMustNot(t *testing.T) {
	expr, err := filter.NewExpression(
		nil,
		[]filter.Condition{mustMatch(t, "tags", "pool"), mustMatch(t, "tags", "garage")},
		[]filter.Condition{mustMatch(t, "tags", "fixer_upper")},
	)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}

	got := buildFilter(expr)
	want := "(@tags:{pool} | @tags:{garage}) -@tags:{fixer_upper}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildTagFilter_EscapesSpecials(t *testing.T) {
	got := buildTagFilter("tags", "mid-century modern")
	want := `@tags:{mid\-century\ modern}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	got := escapeQuery(`pool-side (sunny) homes`)
	want := `pool\-side \(sunny\) homes`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKNNScoreField(t *testing.T) {
	if got := knnScoreField("image_vec"); got != "__image_vec_score" {
		t.Errorf("got %q", got)
	}
}

func TestVectorToBytes_LittleEndian(t *testing.T) {
	v := []float32{1.5, -0.25}
	got := []byte(vectorToBytes(v))

	if len(got) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(got))
	}
	for i, f := range v {
		bits := binary.LittleEndian.Uint32(got[i*4:])
		if math.Float32frombits(bits) != f {
			t.Errorf("element %d: got %g, want %g", i, math.Float32frombits(bits), f)
		}
	}
}
