package data

import (
	"strings"
	"testing"

	"github.com/mrasu/dset/thelper"
)

func TestGenerator_Next(t *testing.T) {
	g := NewGeneratorWithPrefix("p")

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "p-") {
			t.Errorf("invalid id format: %s", id)
		}
	}
}

func TestGenerator_Next_WrapsSequence(t *testing.T) {
	g := NewGeneratorWithPrefix("p")
	g.seq = maxSequence

	id := g.Next()
	if !strings.HasSuffix(id, "-1") {
		t.Errorf("sequence did not wrap: %s", id)
	}
	if strings.HasPrefix(id, "p-") {
		t.Errorf("prefix was not refreshed on wrap: %s", id)
	}
	thelper.AssertInt(t, "sequence after wrap", 1, int(g.seq))
}

func TestGenerator_Assign_DeclaredKey(t *testing.T) {
	g := NewGeneratorWithPrefix("p")

	id, err := g.Assign(map[string]interface{}{"custId": float64(5)}, []string{"custId"})
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "key-derived id", "5", id)

	again, err := g.Assign(map[string]interface{}{"custId": float64(5)}, []string{"custId"})
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "key-derived ids are reproducible", id, again)
}

func TestGenerator_Assign_CompositeKey(t *testing.T) {
	g := NewGeneratorWithPrefix("p")

	id, err := g.Assign(map[string]interface{}{"a": "x", "b": float64(2)}, []string{"a", "b"})
	thelper.AssertNoError(t, err)
	thelper.AssertString(t, "composite key id", "x-2", id)
}

func TestGenerator_Assign_MissingKey(t *testing.T) {
	g := NewGeneratorWithPrefix("p")

	_, err := g.Assign(map[string]interface{}{"name": "foo"}, []string{"custId"})
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("expected SchemaError, got: %v", err)
	}

	_, err = g.Assign(map[string]interface{}{"custId": ""}, []string{"custId"})
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("expected SchemaError for empty key, got: %v", err)
	}
}

func TestGenerator_Assign_NoKeyFields(t *testing.T) {
	g := NewGeneratorWithPrefix("p")

	id, err := g.Assign(map[string]interface{}{"name": "foo"}, nil)
	thelper.AssertNoError(t, err)
	if !strings.HasPrefix(id, "p-") {
		t.Errorf("expected surrogate id, got: %s", id)
	}
}
