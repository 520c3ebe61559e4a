package config

import "testing"

func TestBaseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "regional", code: "en-US", want: "en"},
		{name: "bare", code: "en", want: "en"},
		{name: "other locale", code: "es-MX", want: "es"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Config{LanguageCode: tt.code}
			if got := cfg.BaseLanguage(); got != tt.want {
				t.Fatalf("BaseLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeStoreType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "memory", want: "memory"},
		{raw: "Memory ", want: "memory"},
		{raw: "s3", want: "s3"},
		{raw: "", want: "s3"},
		{raw: "anything-else", want: "s3"},
	}

	for _, tt := range tests {
		if got := normalizeStoreType(tt.raw); got != tt.want {
			t.Fatalf("normalizeStoreType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
