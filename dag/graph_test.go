package dag

import (
	"slices"
	"testing"

	"github.com/kbukum/taskflow/errors"
)

func diamond() Graph {
	return Graph{"A": nil, "B": {"A"}, "C": {"A"}, "D": {"B", "C"}}
}

func TestGraph_Dependencies(t *testing.T) {
	g := Graph{"a": {"c", "b", "c", "ghost"}, "b": nil, "c": nil}

	if got, want := g.Dependencies("a"), []string{"b", "c", "ghost"}; !slices.Equal(got, want) {
		t.Errorf("Dependencies = %v, want %v", got, want)
	}
	if got, want := g.KnownDependencies("a"), []string{"b", "c"}; !slices.Equal(got, want) {
		t.Errorf("KnownDependencies = %v, want %v", got, want)
	}
	if got := g["a"]; len(got) != 4 {
		t.Errorf("Dependencies modified the graph: %v", got)
	}
	if got := g.UnknownDependencies(); !slices.Equal(got["a"], []string{"ghost"}) || len(got) != 1 {
		t.Errorf("UnknownDependencies = %v", got)
	}
}

func TestGraph_Dependents(t *testing.T) {
	deps := diamond().Dependents()

	if got, want := deps["A"], []string{"B", "C"}; !slices.Equal(got, want) {
		t.Errorf("Dependents[A] = %v, want %v", got, want)
	}
	if got := deps["D"]; len(got) != 0 {
		t.Errorf("Dependents[D] = %v, want none", got)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := diamond()
	g["E"] = []string{"missing"}

	sub, err := g.Subgraph("B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sub.Tasks(), []string{"A", "B"}; !slices.Equal(got, want) {
		t.Errorf("Subgraph(B) = %v, want %v", got, want)
	}

	sub, err = g.Subgraph("D", "E")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sub.Tasks(), []string{"A", "B", "C", "D", "E"}; !slices.Equal(got, want) {
		t.Errorf("Subgraph(D, E) = %v, want %v", got, want)
	}
	if !slices.Equal(sub["E"], []string{"missing"}) {
		t.Errorf("unknown dependency dropped: %v", sub["E"])
	}

	if _, err := g.Subgraph("nope"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("expected TASK_NOT_FOUND, got %v", err)
	}
}

func TestGraph_TopologicalOrder(t *testing.T) {
	order, err := diamond().TopologicalOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"A", "B", "C", "D"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	if _, err := (Graph{"a": {"b"}, "b": {"a"}}).TopologicalOrder(); err == nil {
		t.Error("expected cycle error")
	}
}

func TestGraph_Levels(t *testing.T) {
	g := diamond()
	g["E"] = nil

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"A", "E"}, {"B", "C"}, {"D"}}
	if len(levels) != len(want) {
		t.Fatalf("levels = %v, want %v", levels, want)
	}
	for i := range want {
		if !slices.Equal(levels[i], want[i]) {
			t.Errorf("level %d = %v, want %v", i, levels[i], want[i])
		}
	}

	empty, err := Graph{}.Levels()
	if err != nil || len(empty) != 0 {
		t.Errorf("empty graph levels = %v, %v", empty, err)
	}
}
