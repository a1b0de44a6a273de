package engine

import (
	"slices"
	"strings"
)

// CompanionEvent names what earned a companion XP.
type CompanionEvent string

const (
	CompanionDream  CompanionEvent = "dream"
	CompanionRitual CompanionEvent = "ritual"
	CompanionQuest  CompanionEvent = "quest"
)

// companionEventXP is the flat award for events that carry no amount of their own.
var companionEventXP = map[CompanionEvent]int{
	CompanionDream:  10,
	CompanionRitual: 20,
	CompanionQuest:  50,
}

type Companion struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Forms         []string `json:"forms,omitempty"`
	EvolutionTree []string `json:"evolutionTree,omitempty"`
	Level         int      `json:"level"`
	XP            int      `json:"xp"`
	Bond          int      `json:"bond"`
}

// Evolved reports whether the companion has grown past its first form.
func (c Companion) Evolved() bool {
	return len(c.EvolutionTree) > 1 || len(c.Forms) > 1
}

// CompanionXPForLevel is the XP a companion must bank at level-1 to reach level.
func CompanionXPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return max(20, level*20)
}

// gain banks xp and levels up while the next threshold is met. XP is held
// relative to the current level.
func (c *Companion) gain(xp int) (levels int) {
	c.Level = max(c.Level, 1)
	c.XP += xp
	for need := CompanionXPForLevel(c.Level + 1); c.XP >= need; need = CompanionXPForLevel(c.Level + 1) {
		c.XP -= need
		c.Level++
		levels++
	}
	return levels
}

// gainCompanionXP gives every companion amount XP, scaled by live XP buffs.
// A zero amount falls back to the event's flat award. It returns the applied amount.
func (o *op) gainCompanionXP(event CompanionEvent, amount int) int {
	if len(o.st.Companions) == 0 {
		return 0
	}
	if amount == 0 {
		amount = companionEventXP[event]
	}
	if amount <= 0 {
		return 0
	}
	applied := ApplyBuffs(o.st.Buffs, BuffXPMultiplier, o.now, amount)
	for i := range o.st.Companions {
		if n := o.st.Companions[i].gain(applied); n > 0 {
			o.log.Info("companion levelled", "companion", o.st.Companions[i].ID, "level", o.st.Companions[i].Level, "event", event)
		}
	}
	return applied
}

// upsertCompanion stores c by id. Updating keeps the earned level, XP and
// bond unless c sets them.
func (o *op) upsertCompanion(c Companion) (Companion, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Companion{}, InputError{Field: "name", Reason: "is required"}
	}
	if c.ID == "" {
		c.ID = o.newID()
	}
	if i := slices.IndexFunc(o.st.Companions, func(x Companion) bool { return x.ID == c.ID }); i >= 0 {
		prev := o.st.Companions[i]
		if c.Level == 0 && c.XP == 0 {
			c.Level, c.XP = prev.Level, prev.XP
		}
		if c.Bond == 0 {
			c.Bond = prev.Bond
		}
		c.Level = max(c.Level, 1)
		o.st.Companions[i] = c
		return c, nil
	}
	c.Level = max(c.Level, 1)
	c.Bond = clampMeter(c.Bond)
	o.st.Companions = append(o.st.Companions, c)
	return c, nil
}
