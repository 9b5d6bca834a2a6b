package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RuleType selects when a Rule applies.
type RuleType string

const (
	// RulePermanent applies until the rule is disabled.
	RulePermanent RuleType = "permanent"
	// RuleTimer applies for Duration from StartedAt.
	RuleTimer RuleType = "timer"
	// RuleSchedule applies on Days between Start and End (local time).
	RuleSchedule RuleType = "schedule"
)

// ErrInvalidRule wraps every rule validation failure.
var ErrInvalidRule = errors.New("invalid rule")

// Rule blocks a set of apps and websites during a time window.
type Rule struct {
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Type       RuleType       `yaml:"type" json:"type"`
	Disabled   bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Apps       []string       `yaml:"apps,omitempty" json:"apps,omitempty"`
	Domains    []string       `yaml:"domains,omitempty" json:"domains,omitempty"`
	Categories []string       `yaml:"categories,omitempty" json:"categories,omitempty"`
	StartedAt  time.Time      `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	Duration   time.Duration  `yaml:"duration,omitempty" json:"duration,omitempty"`
	Days       []time.Weekday `yaml:"days,omitempty" json:"days,omitempty"`   // 0 = Sunday
	Start      string         `yaml:"start,omitempty" json:"start,omitempty"` // "HH:MM"
	End        string         `yaml:"end,omitempty" json:"end,omitempty"`     // "HH:MM"; before Start means overnight
}

// Validate checks the fields required by the rule's type.
func (r Rule) Validate() error {
	label := r.Name
	if label == "" {
		label = string(r.Type)
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidRule, label, fmt.Sprintf(format, args...))
	}

	if len(r.Apps) == 0 && len(r.Domains) == 0 && len(r.Categories) == 0 {
		return fail("no apps, domains or categories")
	}
	switch r.Type {
	case RulePermanent:
	case RuleTimer:
		if r.StartedAt.IsZero() || r.Duration <= 0 {
			return fail("timer needs started_at and a positive duration")
		}
	case RuleSchedule:
		if len(r.Days) == 0 {
			return fail("schedule needs at least one day")
		}
		for _, d := range r.Days {
			if d < time.Sunday || d > time.Saturday {
				return fail("day %d out of range 0-6", d)
			}
		}
		if _, err := parseClock(r.Start); err != nil {
			return fail("start: %v", err)
		}
		if _, err := parseClock(r.End); err != nil {
			return fail("end: %v", err)
		}
	default:
		return fail("unknown type %q", r.Type)
	}
	return nil
}

// ActiveAt reports whether the rule applies at now. Timer windows include
// both ends. Schedule windows compare whole minutes, include both ends, and
// check the weekday of now itself, also for the after-midnight part of an
// overnight window.
func (r Rule) ActiveAt(now time.Time) bool {
	if r.Disabled {
		return false
	}
	switch r.Type {
	case RulePermanent:
		return true
	case RuleTimer:
		if r.StartedAt.IsZero() || r.Duration <= 0 {
			return false
		}
		return !now.Before(r.StartedAt) && !now.After(r.StartedAt.Add(r.Duration))
	case RuleSchedule:
		return r.scheduledAt(now)
	default:
		return false
	}
}

func (r Rule) scheduledAt(now time.Time) bool {
	today := false
	for _, d := range r.Days {
		if d == now.Weekday() {
			today = true
			break
		}
	}
	if !today {
		return false
	}

	start, err := parseClock(r.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(r.End)
	if err != nil {
		return false
	}

	current := now.Hour()*60 + now.Minute()
	if end < start {
		return current >= start || current <= end
	}
	return current >= start && current <= end
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ActiveRules returns the rules that apply at now, in order.
func ActiveRules(rules []Rule, now time.Time) []Rule {
	var active []Rule
	for _, r := range rules {
		if r.ActiveAt(now) {
			active = append(active, r)
		}
	}
	return active
}
