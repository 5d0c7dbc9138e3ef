package idgen_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/clubgate/clubgate/adapters/idgen"
)

func TestUUIDNew(t *testing.T) {
	g := idgen.UUID{}
	a, b := g.New(), g.New()
	if a == b {
		t.Error("consecutive UUIDs collided")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("not a UUID: %q", a)
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("sub-")
	if got := g.New(); got != "sub-1" {
		t.Errorf("first ID = %q, want sub-1", got)
	}
	if got := g.New(); got != "sub-2" {
		t.Errorf("second ID = %q, want sub-2", got)
	}
}
