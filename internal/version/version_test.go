package version

import (
	"strings"
	"testing"
)

func TestBuildNumber(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    int
		wantErr bool
	}{
		{name: "epoch", date: "2026-01-01", want: 0},
		{name: "next day", date: "2026-01-02", want: 1},
		{name: "one year later", date: "2027-01-01", want: 365},
		{name: "across leap day", date: "2029-01-01", want: 1096},
		{name: "garbage", date: "yesterday", wantErr: true},
		{name: "empty", date: "", wantErr: true},
		{name: "before epoch", date: "2025-12-31", wantErr: true},
	}

	old := BuildDate
	defer func() { BuildDate = old }()

	// BuildDate - глобальная переменная, поэтому без t.Parallel
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BuildDate = tt.date

			got, err := BuildNumber()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got build %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildNumber() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	old := BuildDate
	defer func() { BuildDate = old }()

	BuildDate = ""
	if s := String(); !strings.Contains(s, "unknown build") {
		t.Errorf("String() = %q", s)
	}

	BuildDate = "2026-01-11"
	info := Info()
	if !info.Known || info.Build != 10 {
		t.Errorf("Info() = %+v", info)
	}
	if s := String(); !strings.Contains(s, "build 10") || !strings.Contains(s, "commit[unknown]") {
		t.Errorf("String() = %q", s)
	}
}
