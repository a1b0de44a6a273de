package engine

import (
	"slices"
	"strings"
	"time"
)

// The types below are owned by the journal, shame, punishment and map
// features. The progression engines only read them.

type JournalEntry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Title      string    `json:"title,omitempty"`
	Tags       []string  `json:"tags"`
	Lucidity   Lucidity  `json:"lucidity,omitempty"`
	Places     []string  `json:"places,omitempty"`
	Companions []string  `json:"companions,omitempty"`
}

func (e JournalEntry) HasTag(tag string) bool {
	return slices.ContainsFunc(e.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

type Confession struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type ShameCounters struct {
	PantiesSniffed    int          `json:"pantiesSniffed"`
	RitualsFailed     int          `json:"ritualsFailed"`
	DirtyTokensBurned int          `json:"dirtyTokensBurned"`
	Confessions       []Confession `json:"confessions"`
}

type Punishment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      int       `json:"tier"`
	StartedAt time.Time `json:"startedAt"`
}

type MapNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

// Snapshot is the read-only view the achievement and auto-complete rules see.
// Nil or empty fields mean the owning feature has nothing yet.
type Snapshot struct {
	Journal         []JournalEntry
	Shame           *ShameCounters
	Dungeons        []Dungeon
	Companions      []Companion
	RitualProgress  map[string]RitualProgress
	Punishments     []Punishment
	MapNodes        []MapNode
	Quests          []Quest
	QuestsCompleted int
}

func (o *op) snapshot() Snapshot {
	shame := o.st.Shame
	return Snapshot{
		Journal:         o.st.Journal,
		Shame:           &shame,
		Dungeons:        o.st.Dungeons,
		Companions:      o.st.Companions,
		RitualProgress:  ritualProgressMap(o.st, o.now),
		Punishments:     o.st.Punishments,
		MapNodes:        o.st.MapNodes,
		Quests:          o.st.Quests.Quests,
		QuestsCompleted: o.st.Quests.QuestsCompleted,
	}
}

type JournalInput struct {
	Title      string
	Date       time.Time
	Tags       []string
	Lucidity   Lucidity
	Places     []string
	Companions []string
}

func (o *op) recordJournalEntry(in JournalInput) JournalEntry {
	date := in.Date
	if date.IsZero() {
		date = o.now
	}
	e := JournalEntry{
		ID:         o.newID(),
		Date:       date,
		Title:      strings.TrimSpace(in.Title),
		Tags:       append([]string{}, in.Tags...),
		Lucidity:   in.Lucidity,
		Places:     in.Places,
		Companions: in.Companions,
	}
	o.st.Journal = append(o.st.Journal, e)
	o.npcsInEntry(e)
	o.gainCompanionXP(CompanionDream, 0)
	return e
}

// adjustShame adds delta to a named counter, clamped at zero.
func (o *op) adjustShame(counter string, delta int) (int, error) {
	s := &o.st.Shame
	var field *int
	switch strings.ToLower(counter) {
	case "pantiessniffed":
		field = &s.PantiesSniffed
	case "ritualsfailed":
		field = &s.RitualsFailed
	case "dirtytokensburned":
		field = &s.DirtyTokensBurned
	default:
		return 0, InputError{Field: "counter", Reason: "must be pantiesSniffed, ritualsFailed or dirtyTokensBurned"}
	}
	*field = max(*field+delta, 0)
	return *field, nil
}

func (o *op) addConfession(text string) (Confession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Confession{}, InputError{Field: "text", Reason: "is required"}
	}
	c := Confession{ID: o.newID(), Text: text, At: o.now}
	o.st.Shame.Confessions = append(o.st.Shame.Confessions, c)
	return c, nil
}

func (o *op) addPunishment(name string, tier int) (Punishment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Punishment{}, InputError{Field: "name", Reason: "is required"}
	}
	p := Punishment{ID: o.newID(), Name: name, Tier: max(tier, 1), StartedAt: o.now}
	o.st.Punishments = append(o.st.Punishments, p)
	return p, nil
}

func (o *op) clearPunishment(id string) Outcome {
	i := slices.IndexFunc(o.st.Punishments, func(p Punishment) bool { return p.ID == id })
	if i < 0 {
		return OutcomeNotFound
	}
	o.st.Punishments = slices.Delete(o.st.Punishments, i, i+1)
	return OutcomeUpdated
}

func (o *op) unlockMapNode(id string) Outcome {
	i := slices.IndexFunc(o.st.MapNodes, func(n MapNode) bool { return n.ID == id })
	if i < 0 {
		return OutcomeNotFound
	}
	if o.st.MapNodes[i].Unlocked {
		return OutcomeAlreadyCompleted
	}
	o.st.MapNodes[i].Unlocked = true
	return OutcomeUpdated
}
