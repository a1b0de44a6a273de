package engine

import (
	"slices"
	"time"
)

// Profile holds the player's running totals.
type Profile struct {
	XP        int            `json:"xp"`
	Obedience int            `json:"obedience"`
	Tokens    int            `json:"tokens"`
	Titles    []string       `json:"titles"`
	Items     map[string]int `json:"items"`
}

func (p Profile) Level() int { return LevelForTotalXP(p.XP) }

// RewardSink receives every grant an engine makes. XP, tokens and obedience
// pass through the buff stage first; callers must book the returned amount.
type RewardSink interface {
	GrantXP(amount int) int
	GrantTokens(amount int) int
	GrantObedience(amount int) int
	GrantItem(itemID string, qty int)
	GrantBuff(b Buff)
	GrantTitle(title string)
}

// Grants summarises what one operation handed out.
type Grants struct {
	XP        int
	Tokens    int
	Obedience int
	Items     []string
	Titles    []string
	Buffs     []string
}

func (g Grants) Empty() bool {
	return g.XP == 0 && g.Tokens == 0 && g.Obedience == 0 &&
		len(g.Items) == 0 && len(g.Titles) == 0 && len(g.Buffs) == 0
}

// ledger is the RewardSink bound to one loaded State.
type ledger struct {
	st      *State
	now     time.Time
	newID   func() string
	granted Grants
}

var _ RewardSink = (*ledger)(nil)

func (l *ledger) GrantXP(amount int) int {
	if amount <= 0 {
		return 0
	}
	applied := ApplyBuffs(l.st.Buffs, BuffXPMultiplier, l.now, amount)
	l.st.Profile.XP += applied
	l.granted.XP += applied
	return applied
}

func (l *ledger) GrantTokens(amount int) int {
	if amount <= 0 {
		return 0
	}
	applied := ApplyBuffs(l.st.Buffs, BuffTokenMultiplier, l.now, amount)
	l.st.Profile.Tokens += applied
	l.granted.Tokens += applied
	return applied
}

func (l *ledger) GrantObedience(amount int) int {
	if amount <= 0 {
		return 0
	}
	applied := ApplyBuffs(l.st.Buffs, BuffObedienceGain, l.now, amount)
	l.st.Profile.Obedience += applied
	l.granted.Obedience += applied
	return applied
}

func (l *ledger) GrantItem(itemID string, qty int) {
	if itemID == "" || qty <= 0 {
		return
	}
	if l.st.Profile.Items == nil {
		l.st.Profile.Items = map[string]int{}
	}
	l.st.Profile.Items[itemID] += qty
	l.granted.Items = append(l.granted.Items, itemID)
}

// GrantBuff activates b. A buff with the same id is refreshed instead of duplicated.
func (l *ledger) GrantBuff(b Buff) {
	if b.ID == "" {
		b.ID = l.newID()
	}
	b.activate(l.now)
	for i := range l.st.Buffs {
		if l.st.Buffs[i].ID == b.ID {
			l.st.Buffs[i] = b
			l.granted.Buffs = append(l.granted.Buffs, b.Name)
			return
		}
	}
	l.st.Buffs = append(l.st.Buffs, b)
	l.granted.Buffs = append(l.granted.Buffs, b.Name)
}

func (l *ledger) GrantTitle(title string) {
	if title == "" || slices.Contains(l.st.Profile.Titles, title) {
		return
	}
	l.st.Profile.Titles = append(l.st.Profile.Titles, title)
	l.granted.Titles = append(l.granted.Titles, title)
}

// triggerSource activates the stored buffs tied to source.
func (l *ledger) triggerSource(source string) []string {
	names := TriggerBuffsBySource(l.st.Buffs, source, l.now)
	l.granted.Buffs = append(l.granted.Buffs, names...)
	return names
}
