package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "***"

// Redactor scrubs credentials from log attributes before they are written.
// Database DSNs are the main concern: a postgres URL logged on a failed
// connection carries the password in its userinfo.
type Redactor struct {
	sensitiveKeys []string
	patterns      []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in key list and patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: []string{"password", "passwd", "secret", "token", "dsn"},
		patterns: []*redactPattern{
			{
				// key=value password pairs inside libpq style DSNs
				regex:       regexp.MustCompile(`(?i)(password|passwd)=\S+`),
				replacement: "$1=" + Redacted,
			},
			{
				// userinfo password inside URL style DSNs
				regex:       regexp.MustCompile(`([a-z][a-z0-9+.-]*://[^:/@\s]+):[^@\s]+@`),
				replacement: "$1:" + Redacted + "@",
			},
		},
	}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		if a.Value.Kind() == slog.KindString && strings.Contains(a.Value.String(), "://") {
			return slog.String(a.Key, RedactDSN(a.Value.String()))
		}
		return slog.String(a.Key, Redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); s != "" {
			if redacted := r.RedactString(s); redacted != s {
				return slog.String(a.Key, redacted)
			}
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if redacted := r.RedactString(msg); redacted != msg {
				return slog.String(a.Key, redacted)
			}
		}
	}
	return a
}

// RedactString removes credentials matched by the built-in patterns.
func (r *Redactor) RedactString(value string) string {
	redacted := value
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactDSN masks the password of a URL style DSN, keeping the rest
// readable. Strings that do not parse as URLs are masked entirely.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return Redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), Redacted)
	}
	return u.String()
}
