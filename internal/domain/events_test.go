package domain

import "testing"

func TestParseEvent(t *testing.T) {
	tests := []struct {
		input    string
		expected EventKind
	}{
		{"MOVE", EventMove},
		{"move", EventMove},
		{"Turn", EventTurn},
		{"INTERACT", EventInteract},
		{"end_interaction", EventEndInteraction},
		{"TIMER", EventTimer},
		{"ATTACK", EventUnknown},
		{"", EventUnknown},
	}

	for _, tt := range tests {
		result := ParseEvent(tt.input)
		if result != tt.expected {
			t.Errorf("ParseEvent(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind     EventKind
		expected string
	}{
		{EventMove, "MOVE"},
		{EventEndInteraction, "END_INTERACTION"},
		{EventUnknown, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

func TestBindings_Resolve(t *testing.T) {
	b := DefaultBindings(50)

	ev, ok := b.Resolve("W", "red", Position{})
	if !ok {
		t.Fatalf("Resolve(W) not found")
	}
	if ev.Kind != EventMove || ev.Actor != "red" || ev.Delta.Y != -50 {
		t.Errorf("Resolve(W) = %+v", ev)
	}

	target := Position{X: 3, Y: 4}
	ev, ok = b.Resolve("use", "red", target)
	if !ok || ev.Kind != EventInteract || ev.Target != target {
		t.Errorf("Resolve(use) = %+v, %v", ev, ok)
	}

	if _, ok := b.Resolve("fly", "red", Position{}); ok {
		t.Errorf("Resolve(fly) should not be bound")
	}
}
