package supergraph_test

import (
	"errors"
	"testing"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

func TestParseSelection_FlatAndNested(t *testing.T) {
	sel, err := supergraph.ParseSelection("id variation { id color }")
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if len(sel) != 2 {
		t.Fatalf("expected 2 top-level fields, got %d", len(sel))
	}
	if sel[0].Name != "id" || len(sel[0].Children) != 0 {
		t.Errorf("expected a bare 'id' field, got %+v", sel[0])
	}
	if sel[1].Name != "variation" || len(sel[1].Children) != 2 {
		t.Fatalf("expected 'variation' with 2 children, got %+v", sel[1])
	}
	if got := sel.String(); got != "id variation { id color }" {
		t.Errorf("String() round-trip = %q", got)
	}
}

func TestParseSelection_Errors(t *testing.T) {
	for _, raw := range []string{"", "id {", "id }", "1bad"} {
		if _, err := supergraph.ParseSelection(raw); err == nil {
			t.Errorf("expected an error parsing %q", raw)
		} else if !errors.Is(err, supergraph.ErrInvalidKeySelection) {
			t.Errorf("expected ErrInvalidKeySelection for %q, got %v", raw, err)
		}
	}
}

func TestSelectionResolver_RejectsUnavailableField(t *testing.T) {
	state := buildState(t)
	resolver := state.SelectionResolverForSubgraph("REVIEWS")
	if _, err := resolver.Resolve("Product", "id"); err != nil {
		t.Errorf("expected 'id' to resolve in REVIEWS, got %v", err)
	}
	if _, err := resolver.Resolve("Product", "name"); err == nil {
		t.Error("expected 'name' to be rejected in REVIEWS (only available in PRODUCTS)")
	}
}
