package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"ES", "es"},
		{"spanish", "es"},
		{"es-MX", "es"},
		{" vie ", "vi"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ToISO2(tc.in); got != tc.want {
			t.Fatalf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"es", "es-ES"},
		{"es-mx", "es-MX"},
		{"french", "fr-FR"},
		{"xx", ""},
	}
	for _, tc := range tests {
		if got := Locale(tc.in); got != tc.want {
			t.Fatalf("Locale(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("de"); got != "German" {
		t.Fatalf("DisplayName(de) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("qq"); got != "QQ" {
		t.Fatalf("DisplayName(qq) = %q", got)
	}
	if !Known("japanese") || Known("qq") {
		t.Fatal("unexpected Known results")
	}
}
