// Package schedule turns the --at expressions accepted by the CLI into a
// delivery time for a timed message.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/signalbox/internal/store"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Resolve returns the UTC delivery time named by expr relative to now.
// Accepted forms:
//
//	2030-01-01T09:00:00Z   RFC 3339 timestamp
//	+90m, +2h, +1h30m      offset from now (Go duration syntax)
//	0 9 * * 1              5-field cron expression; the next fire after now
func Resolve(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("schedule: %w: empty expression", store.ErrInvalid)
	}

	if strings.HasPrefix(expr, "+") {
		d, err := time.ParseDuration(expr[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("schedule: %w: offset %q: %v", store.ErrInvalid, expr, err)
		}
		if d <= 0 {
			return time.Time{}, fmt.Errorf("schedule: %w: offset %q must be positive", store.ErrInvalid, expr)
		}
		return now.Add(d).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return t.UTC(), nil
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: %w: %q is not a timestamp, offset or cron expression", store.ErrInvalid, expr)
	}
	return sched.Next(now).UTC(), nil
}
