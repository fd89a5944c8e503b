package sources

import (
	"errors"
	"testing"

	"retroref/internal/services"
)

func TestFilterAdmit(t *testing.T) {
	t.Parallel()

	f, err := NewFilter([]string{"mario*"}, []string{"*beta*"})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	if !f.Admit("Mario Kart 64 (USA).z64") {
		t.Fatal("included name rejected")
	}
	if f.Admit("Mario Kart 64 (USA) (Beta).z64") {
		t.Fatal("excluded name admitted")
	}
	if f.Admit("Zelda (USA).z64") {
		t.Fatal("non-included name admitted")
	}
}

func TestFilterSubstringFallback(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(nil, []string{"kart"})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Admit("Super Mario Kart (USA).sfc") {
		t.Fatal("substring exclude did not apply")
	}
	if !f.Admit("Super Mario World (USA).sfc") {
		t.Fatal("unrelated name rejected")
	}
}

func TestFilterEmptyAdmitsEverything(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(nil, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Admit("anything.zip") {
		t.Fatal("empty filter rejected a name")
	}

	var nilFilter *Filter
	if !nilFilter.Admit("anything.zip") {
		t.Fatal("nil filter rejected a name")
	}
}

func TestFilterRejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFilter([]string{"[unclosed"}, nil)
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
