package query

import (
	"testing"

	"pgregory.net/rapid"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"'json'", "json", false},
		{"'O''Brien'", "O'Brien", false},
		{"''", "", false},
		{"json", "json", false},
		{" 'spaced' ", "spaced", false},
		{"'unterminated", "", true},
		{"'a'b", "", true},
	}
	for _, tt := range tests {
		got, err := parseLiteral(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLiteral(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseEntityKey(t *testing.T) {
	tests := []struct {
		in          string
		id, version string
		wantErr     bool
	}{
		{"Id='Foo',Version='1.0.0'", "Foo", "1.0.0", false},
		{"id='Foo', version='1.0'", "Foo", "1.0", false},
		{"Version='2.0.0-beta',Id='Bar'", "Bar", "2.0.0-beta", false},
		{"Id='Foo'", "", "", true},
		{"", "", "", true},
		{"Id='Foo',Version='1.0',Extra='x'", "", "", true},
		{"Id=Foo,Version='1.0'", "", "", true},
	}
	for _, tt := range tests {
		id, version, err := ParseEntityKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntityKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if id != tt.id || version != tt.version {
			t.Errorf("ParseEntityKey(%q) = %q, %q", tt.in, id, version)
		}
	}
}

func TestPropertyEntityKeyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[A-Za-z0-9.' ]{1,20}`).Draw(t, "id")
		version := rapid.StringMatching(`[0-9]\.[0-9]\.[0-9](-[a-z']{1,5})?`).Draw(t, "version")

		gotID, gotVersion, err := ParseEntityKey(FormatEntityKey(id, version))
		if err != nil {
			t.Fatalf("ParseEntityKey(FormatEntityKey(%q, %q)): %v", id, version, err)
		}
		if gotID != id || gotVersion != version {
			t.Fatalf("round trip gave %q, %q; want %q, %q", gotID, gotVersion, id, version)
		}
	})
}
