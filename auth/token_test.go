package auth

import (
	"testing"
	"time"
)

func TestToken_Valid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 5 * time.Minute

	tests := []struct {
		name string
		tok  Token
		want bool
	}{
		{
			name: "empty token",
			tok:  Token{},
			want: false,
		},
		{
			name: "well before expiry",
			tok:  Token{AccessToken: "t", ExpiresAt: now.Add(2 * time.Hour)},
			want: true,
		},
		{
			name: "inside refresh margin",
			tok:  Token{AccessToken: "t", ExpiresAt: now.Add(3 * time.Minute)},
			want: false,
		},
		{
			name: "exactly at margin boundary",
			tok:  Token{AccessToken: "t", ExpiresAt: now.Add(margin)},
			want: false,
		},
		{
			name: "already expired",
			tok:  Token{AccessToken: "t", ExpiresAt: now.Add(-time.Minute)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tok.Valid(now, margin); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_GetSet(t *testing.T) {
	var s Store

	if got := s.Get(); got.AccessToken != "" {
		t.Errorf("empty store returned token %q", got.AccessToken)
	}

	tok := Token{AccessToken: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	s.Set(tok)

	if got := s.Get(); got != tok {
		t.Errorf("Get() = %+v, want %+v", got, tok)
	}
}

func TestStore_Invalidate(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		stale    string
		wantKept bool
	}{
		{
			name:     "matching token is dropped",
			current:  "tok-1",
			stale:    "tok-1",
			wantKept: false,
		},
		{
			name:     "non-matching token is kept",
			current:  "tok-2",
			stale:    "tok-1",
			wantKept: true,
		},
		{
			name:     "empty stale is a no-op",
			current:  "tok-1",
			stale:    "",
			wantKept: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Store
			s.Set(Token{AccessToken: tt.current, ExpiresAt: time.Now().Add(time.Hour)})

			s.Invalidate(tt.stale)

			got := s.Get().AccessToken
			if tt.wantKept && got != tt.current {
				t.Errorf("token = %q, want %q kept", got, tt.current)
			}
			if !tt.wantKept && got != "" {
				t.Errorf("token = %q, want dropped", got)
			}
		})
	}
}
