package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{
			name: "password key",
			attr: slog.String("password", "hunter2"),
			want: Redacted,
		},
		{
			name: "nested secret key",
			attr: slog.String("postgres_password", "hunter2"),
			want: Redacted,
		},
		{
			name: "dsn key keeps host",
			attr: slog.String("dsn", "postgres://retainer:hunter2@db:5432/zulip?sslmode=disable"),
			want: "postgres://retainer:%2A%2A%2A@db:5432/zulip?sslmode=disable",
		},
		{
			name: "empty password untouched",
			attr: slog.String("password", ""),
			want: "",
		},
		{
			name: "plain value untouched",
			attr: slog.String("pipeline", "archive"),
			want: "archive",
		},
		{
			name: "url password in message value",
			attr: slog.String("detail", "dial postgres://retainer:hunter2@db/zulip failed"),
			want: "dial postgres://retainer:***@db/zulip failed",
		},
		{
			name: "keyword password in error",
			attr: slog.Any("error", errors.New("connect host=db password=hunter2 failed")),
			want: "connect host=db password=*** failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Key != tt.attr.Key {
				t.Errorf("expected key %q kept, got %q", tt.attr.Key, got.Key)
			}
			if got.Value.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Value.String())
			}
		})
	}
}

func TestRedactor_NonStringSensitiveValue(t *testing.T) {
	got := NewRedactor().ReplaceAttr(nil, slog.Int("token", 12345))
	if got.Value.String() != Redacted {
		t.Errorf("expected %q, got %q", Redacted, got.Value.String())
	}
}

func TestRedactDSN(t *testing.T) {
	if got := RedactDSN("postgres://u:p@h/db"); strings.Contains(got, ":p@") {
		t.Errorf("password not masked: %q", got)
	}
	if got := RedactDSN("postgres://h/db"); got != "postgres://h/db" {
		t.Errorf("DSN without password changed: %q", got)
	}
	if got := RedactDSN("not a url"); got != Redacted {
		t.Errorf("expected unparsable DSN fully masked, got %q", got)
	}
}
