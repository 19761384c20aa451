package state

import "testing"

func TestStateAccessors(t *testing.T) {
	s := State{
		"name":    "tether",
		"count":   3,
		"big":     int64(7),
		"decoded": float64(12),
		"on":      true,
		"missing": nil,
	}

	if got := s.String("name"); got != "tether" {
		t.Errorf("expected %q, got %q", "tether", got)
	}
	if got := s.String("count"); got != "" {
		t.Errorf("expected empty string for non-string value, got %q", got)
	}
	if got := s.Int("count"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := s.Int("big"); got != 7 {
		t.Errorf("expected 7 from int64, got %d", got)
	}
	if got := s.Int("decoded"); got != 12 {
		t.Errorf("expected 12 from float64, got %d", got)
	}
	if got := s.Int("name"); got != 0 {
		t.Errorf("expected 0 for non-numeric value, got %d", got)
	}
	if !s.Bool("on") {
		t.Error("expected true")
	}
	if s.Bool("missing") || s.Bool("absent") {
		t.Error("expected false for nil and absent keys")
	}
}

func TestStateSame(t *testing.T) {
	a := State{"x": 1}
	b := State{"x": 1}

	if !Same(a, a) {
		t.Error("a map should be the same as itself")
	}
	if Same(a, b) {
		t.Error("content-equal maps are still distinct instances")
	}
	if !Same(nil, nil) {
		t.Error("two nil states are the same")
	}
	if Same(nil, State{}) {
		t.Error("nil and empty are distinct")
	}
}

func TestMergeDoesNotTouchInputs(t *testing.T) {
	current := State{"a": 1, "b": 2}
	partial := State{"b": 3, "c": 4}

	next := merge(current, partial)

	if current.Int("b") != 2 {
		t.Errorf("merge must not mutate current, got b=%d", current.Int("b"))
	}
	if partial.Int("b") != 3 {
		t.Errorf("merge must not mutate partial, got b=%d", partial.Int("b"))
	}
	if next.Int("a") != 1 || next.Int("b") != 3 || next.Int("c") != 4 {
		t.Errorf("unexpected merge result: %v", next)
	}
}

func TestMergeKeepsNilValues(t *testing.T) {
	next := merge(State{"a": "x"}, State{"a": nil})
	if v, ok := next["a"]; !ok || v != nil {
		t.Errorf("expected key a present with nil value, got %v (present=%v)", v, ok)
	}
}
