package kafka

import (
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/sko00o/plunger-kafka/command"
)

const identityPrefix = "plunger-"

// ClientID identifies this process instance towards the broker.
func ClientID(now time.Time) string {
	return identityPrefix + sanitize(userName()) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// GroupID is stable for a destination, so repeated runs share offsets.
func GroupID(t command.Target) string {
	return identityPrefix + sanitize(strings.Join(t.Hosts, ",")) + "-" + sanitize(t.Destination)
}

func userName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// sanitize keeps characters every client accepts in ids: [a-zA-Z0-9._-].
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
