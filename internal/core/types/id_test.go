package types

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestHandle_Pack(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		index     uint32
		wantKind  Kind
		wantIndex uint32
	}{
		{"Map zero index", KindMap, 0, KindMap, 0},
		{"Door simple", KindDoor, 42, KindDoor, 42},
		{"Texture max index", KindTexture, maskIndex, KindTexture, maskIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := PackHandle(tt.kind, tt.index)
			if got := h.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got, tt.wantKind)
			}
			if got := h.Index(); got != tt.wantIndex {
				t.Errorf("Index() = %v, want %v", got, tt.wantIndex)
			}
		})
	}
}

func TestHandle_IsNil(t *testing.T) {
	tests := []struct {
		name string
		h    Handle
		want bool
	}{
		{"Zero is Nil", 0, true},
		{"NilHandle constant", NilHandle, true},
		{"First map is not Nil", PackHandle(KindMap, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.IsNil(); got != tt.want {
				t.Errorf("IsNil() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandle_Is(t *testing.T) {
	h := PackHandle(KindArchetype, 3)

	if !h.Is(KindArchetype) {
		t.Errorf("Is(KindArchetype) = false, want true")
	}
	if h.Is(KindMap) {
		t.Errorf("Is(KindMap) = true, want false")
	}
	if NilHandle.Is(KindNone) {
		t.Errorf("NilHandle must not match any kind")
	}
}

func TestHandle_String(t *testing.T) {
	tests := []struct {
		name string
		h    Handle
		want string
	}{
		{"Nil", NilHandle, "<nil>"},
		{"Map", PackHandle(KindMap, 7), "[map:7]"},
		{"Door", PackHandle(KindDoor, 1), "[door:1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandle_JSON(t *testing.T) {
	h := PackHandle(KindTexture, 12)

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte(`"`)) {
		t.Errorf("Marshal() = %s, want quoted string", data)
	}

	var back Handle
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != h {
		t.Errorf("Unmarshal() = %v, want %v", back, h)
	}

	// Числовая форма тоже принимается
	var fromNumber Handle
	if err := fromNumber.UnmarshalJSON([]byte("5")); err != nil {
		t.Fatalf("UnmarshalJSON(number) error = %v", err)
	}
	if fromNumber != Handle(5) {
		t.Errorf("UnmarshalJSON(number) = %d, want 5", fromNumber)
	}

	var empty Handle = h
	if err := empty.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatalf("UnmarshalJSON(empty) error = %v", err)
	}
	if !empty.IsNil() {
		t.Errorf("UnmarshalJSON(empty) = %v, want nil", empty)
	}
}
