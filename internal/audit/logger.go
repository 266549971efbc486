// Package audit writes account and member-administration events as structured logs.
package audit

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for identity events.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Record writes one event. Email-like fields are masked. Failed results and
// lockouts are logged at warn level.
func (l *Logger) Record(action string, fields map[string]string) {
	ev := l.log.Info()
	if fields["result"] == "error" || strings.Contains(action, "failed") || strings.Contains(action, "locked") {
		ev = l.log.Warn()
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ev = ev.Str("action", action)
	for _, k := range keys {
		v := fields[k]
		if isEmailField(k) {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}
	ev.Msg("audit event")
}

// Hook adapts Record to the services' audit callback, prefixing actions
// with scope ("auth" -> "auth.login"). Actions already carrying a dot are kept.
func (l *Logger) Hook(scope string) func(action string, fields map[string]string) {
	return func(action string, fields map[string]string) {
		if scope != "" && !strings.Contains(action, ".") {
			action = scope + "." + action
		}
		l.Record(action, fields)
	}
}

func isEmailField(k string) bool {
	return k == "email" || k == "user_name" || strings.HasSuffix(k, "_email")
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email[:2] + "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
