package auth

import (
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenMatches(t *testing.T) {
	t.Parallel()

	if !TokenMatches("secret", "secret") {
		t.Fatal("equal tokens must match")
	}
	if TokenMatches("secret", "other1") {
		t.Fatal("different tokens must not match")
	}
	if TokenMatches("", "") {
		t.Fatal("empty tokens must never match")
	}
	if TokenMatches("secret", "") {
		t.Fatal("empty configured key must never match")
	}
}
