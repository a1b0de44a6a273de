package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type BuffType string

const (
	BuffXPMultiplier    BuffType = "xpMultiplier"
	BuffObedienceGain   BuffType = "obedienceGain"
	BuffTokenMultiplier BuffType = "tokenMultiplier"
	BuffClarityBoost    BuffType = "clarityBoost"
)

// Buff scales one kind of grant while active. Value is a multiplicative factor:
// 1.15 means +15%.
type Buff struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	Type      BuffType   `json:"type"`
	Value     float64    `json:"value"`
	Active    bool       `json:"active"`
	Duration  string     `json:"duration,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (b Buff) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

func (b Buff) Live(now time.Time) bool {
	return b.Active && !b.Expired(now)
}

// Remaining returns the time left on a timed buff; ok is false for untimed buffs.
func (b Buff) Remaining(now time.Time) (time.Duration, bool) {
	if b.ExpiresAt == nil {
		return 0, false
	}
	d := b.ExpiresAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// BuffMultiplier is the product of every live buff of typ.
func BuffMultiplier(buffs []Buff, typ BuffType, now time.Time) float64 {
	mult := 1.0
	for _, b := range buffs {
		if b.Type != typ || !b.Live(now) || b.Value <= 0 {
			continue
		}
		mult *= b.Value
	}
	return mult
}

// ApplyBuffs scales amount by the live buffs of typ and rounds to the nearest integer.
func ApplyBuffs(buffs []Buff, typ BuffType, now time.Time, amount int) int {
	return int(math.Round(float64(amount) * BuffMultiplier(buffs, typ, now)))
}

var durationPart = regexp.MustCompile(`(?i)([0-9]+)\s*(d|h|m|s)`)

// ParseDuration reads "1d 2h", "30m", "12h" style durations. Unparseable or zero input is ok=false.
func ParseDuration(s string) (time.Duration, bool) {
	var total time.Duration
	for _, m := range durationPart.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			total += time.Duration(n) * time.Second
		}
	}
	return total, total > 0
}

// activate switches a buff on and restarts its timer from now.
func (b *Buff) activate(now time.Time) {
	b.Active = true
	b.ExpiresAt = nil
	if d, ok := ParseDuration(b.Duration); ok {
		exp := now.Add(d)
		b.ExpiresAt = &exp
	}
}

// ExpireBuffs deactivates buffs whose timers ran out and returns their ids.
func ExpireBuffs(buffs []Buff, now time.Time) []string {
	var expired []string
	for i := range buffs {
		if buffs[i].Active && buffs[i].Expired(now) {
			buffs[i].Active = false
			expired = append(expired, buffs[i].ID)
		}
	}
	return expired
}

// TriggerBuffsBySource activates every buff whose source matches and returns their names.
func TriggerBuffsBySource(buffs []Buff, source string, now time.Time) []string {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil
	}
	var names []string
	for i := range buffs {
		if !strings.EqualFold(buffs[i].Source, source) {
			continue
		}
		buffs[i].activate(now)
		names = append(names, buffs[i].Name)
	}
	return names
}
