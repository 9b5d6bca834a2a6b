package policy

import (
	"errors"
	"testing"
	"time"
)

// at returns a UTC instant on Monday 2026-10-19 (day offset shifts the date).
func at(dayOffset, hour, minute, second int) time.Time {
	return time.Date(2026, 10, 19+dayOffset, hour, minute, second, 0, time.UTC)
}

func TestRule_Permanent(t *testing.T) {
	r := Rule{Type: RulePermanent, Apps: []string{"steam"}}
	if !r.ActiveAt(at(0, 3, 0, 0)) {
		t.Error("permanent rule should be active")
	}
	r.Disabled = true
	if r.ActiveAt(at(0, 3, 0, 0)) {
		t.Error("disabled rule should be inactive")
	}
}

func TestRule_Timer(t *testing.T) {
	start := at(0, 9, 0, 0)
	r := Rule{Type: RuleTimer, Apps: []string{"discord"}, StartedAt: start, Duration: 90 * time.Minute}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Second), false},
		{"at start", start, true},
		{"midway", start.Add(45 * time.Minute), true},
		{"at end", start.Add(90 * time.Minute), true},
		{"after end", start.Add(90*time.Minute + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ActiveAt(tt.now); got != tt.want {
				t.Errorf("ActiveAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}

	if (Rule{Type: RuleTimer, Apps: []string{"x"}, Duration: time.Hour}).ActiveAt(start) {
		t.Error("timer without a start time should be inactive")
	}
}

func TestRule_ScheduleSameDay(t *testing.T) {
	r := Rule{
		Type:  RuleSchedule,
		Apps:  []string{"steam"},
		Days:  []time.Weekday{time.Monday, time.Wednesday},
		Start: "09:00",
		End:   "17:30",
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", at(0, 8, 59, 59), false},
		{"window start", at(0, 9, 0, 0), true},
		{"inside window", at(0, 12, 15, 0), true},
		{"last minute inclusive", at(0, 17, 30, 59), true},
		{"after window", at(0, 17, 31, 0), false},
		{"wrong weekday", at(1, 12, 0, 0), false},
		{"other listed weekday", at(2, 12, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ActiveAt(tt.now); got != tt.want {
				t.Errorf("ActiveAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestRule_ScheduleOvernight(t *testing.T) {
	r := Rule{
		Type:  RuleSchedule,
		Apps:  []string{"steam"},
		Days:  []time.Weekday{time.Monday},
		Start: "22:00",
		End:   "06:00",
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"monday evening", at(0, 23, 0, 0), true},
		{"monday early morning", at(0, 5, 0, 0), true},
		{"monday midday", at(0, 12, 0, 0), false},
		{"tuesday early morning", at(1, 2, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ActiveAt(tt.now); got != tt.want {
				t.Errorf("ActiveAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestRule_Validate(t *testing.T) {
	valid := []Rule{
		{Type: RulePermanent, Domains: []string{"x.com"}},
		{Type: RuleTimer, Categories: []string{"social"}, StartedAt: at(0, 0, 0, 0), Duration: time.Hour},
		{Type: RuleSchedule, Apps: []string{"a"}, Days: []time.Weekday{0, 6}, Start: "00:00", End: "23:59"},
	}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", r, err)
		}
	}

	invalid := []Rule{
		{Type: RulePermanent},
		{Type: "weekly", Apps: []string{"a"}},
		{Type: RuleTimer, Apps: []string{"a"}, Duration: time.Hour},
		{Type: RuleTimer, Apps: []string{"a"}, StartedAt: at(0, 0, 0, 0)},
		{Type: RuleSchedule, Apps: []string{"a"}, Start: "09:00", End: "10:00"},
		{Type: RuleSchedule, Apps: []string{"a"}, Days: []time.Weekday{7}, Start: "09:00", End: "10:00"},
		{Type: RuleSchedule, Apps: []string{"a"}, Days: []time.Weekday{1}, Start: "9am", End: "10:00"},
		{Type: RuleSchedule, Apps: []string{"a"}, Days: []time.Weekday{1}, Start: "09:00", End: "24:00"},
	}
	for _, r := range invalid {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidRule", r, err)
		}
	}
}

func TestActiveRules(t *testing.T) {
	rules := []Rule{
		{Name: "always", Type: RulePermanent, Apps: []string{"a"}},
		{Name: "off", Type: RulePermanent, Apps: []string{"b"}, Disabled: true},
		{Name: "mornings", Type: RuleSchedule, Apps: []string{"c"}, Days: []time.Weekday{time.Monday}, Start: "06:00", End: "09:00"},
	}

	got := ActiveRules(rules, at(0, 7, 0, 0))
	if len(got) != 2 || got[0].Name != "always" || got[1].Name != "mornings" {
		t.Errorf("ActiveRules = %+v", got)
	}
	if got := ActiveRules(rules, at(0, 10, 0, 0)); len(got) != 1 {
		t.Errorf("expected only the permanent rule, got %+v", got)
	}
}
