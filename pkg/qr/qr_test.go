package qr

import (
	"strings"
	"testing"
)

func TestMinVersion(t *testing.T) {
	tests := []struct {
		payload string
		ecc     ECC
		want    int
	}{
		{"https://a.io", Low, 1},
		{"https://example.com/u/42", Low, 2},
		{"https://example.com/" + strings.Repeat("a", 33), Low, 3},
		{"https://example.com/" + strings.Repeat("a", 34), Low, 4},
		{"https://example.com/u/42", High, 3},
	}
	for _, tt := range tests {
		got, err := MinVersion(tt.payload, tt.ecc)
		if err != nil {
			t.Fatalf("MinVersion(%q, %s) returned error: %v", tt.payload, tt.ecc, err)
		}
		if got != tt.want {
			t.Fatalf("MinVersion(%q, %s) = %d, want %d", tt.payload, tt.ecc, got, tt.want)
		}
	}

	if _, err := MinVersion(strings.Repeat("a", 2954), Low); err == nil {
		t.Fatalf("expected an error for a payload larger than version 40")
	}
	if _, err := MinVersion("https://a.io", ECC(9)); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestEncodeForcedVersion(t *testing.T) {
	p := Params{URL: "https://example.com/u/42", Version: 5, ECC: Medium, Scale: 2}
	q, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if q.VersionNumber != 5 {
		t.Fatalf("expected version 5, got %d", q.VersionNumber)
	}

	p.Version = 1
	if _, err := p.Encode(); err == nil {
		t.Fatalf("expected an error when the url does not fit version 1")
	}
	p.Version = 41
	if _, err := p.Encode(); err == nil {
		t.Fatalf("expected an error for version 41")
	}
}

func TestRender(t *testing.T) {
	p := Params{URL: "https://example.com/u/42", Version: 3, Scale: 1}
	out, err := p.Render()
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	// Two symbol rows per text line, plus the quiet zone.
	side := p.Modules() + 2*QuietZone
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != (side+1)/2 {
		t.Fatalf("expected %d lines, got %d", (side+1)/2, len(lines))
	}
	if n := len([]rune(lines[0])); n != side {
		t.Fatalf("expected %d columns, got %d", side, n)
	}
}

func TestParseECC(t *testing.T) {
	for in, want := range map[string]ECC{"l": Low, "M": Medium, "quartile": Quartile, " H ": High} {
		got, err := ParseECC(in)
		if err != nil {
			t.Fatalf("ParseECC(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseECC(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseECC("X"); err == nil {
		t.Fatalf("expected an error for level X")
	}
}

func TestParamsSize(t *testing.T) {
	p := Params{Version: 3, Scale: 3}
	if p.Modules() != 29 {
		t.Fatalf("expected 29 modules, got %d", p.Modules())
	}
	if p.PixelSize() != 111 {
		t.Fatalf("expected 111px, got %d", p.PixelSize())
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr string
	}{
		{"empty url", Params{Version: 3, Scale: 3}, ""},
		{"fits", Params{URL: "https://example.com/badge/1", Version: 3, Scale: 3}, ""},
		{"relative", Params{URL: "/badge/1", Version: 3, Scale: 3}, "absolute"},
		{"zero scale", Params{URL: "https://example.com", Version: 3}, "scale"},
		{"too long", Params{URL: "https://example.com/" + strings.Repeat("a", 60), Version: 3, Scale: 1}, "use version 5"},
		{"bad version", Params{URL: "https://example.com", Version: 0, Scale: 1}, "between 1 and 40"},
		{"bad level", Params{URL: "https://example.com", Version: 3, ECC: ECC(7), Scale: 1}, "error correction"},
		{"too large", Params{URL: "https://example.com", Version: 10, Scale: 3}, "px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(128)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
