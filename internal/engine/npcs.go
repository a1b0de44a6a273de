package engine

import (
	"slices"
	"strings"
)

// NPC is a recurring dream figure. Trust and Shame are meters from 0 to 100.
type NPC struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	DreamCount int    `json:"dreamCount"`
	Trust      int    `json:"trust"`
	Shame      int    `json:"shame"`
	Bio        string `json:"bio,omitempty"`
}

const (
	meterMax = 100

	// Meter movement when a ritual or questline stage names an NPC.
	ritualNPCShame = 5
	stageNPCTrust  = 5

	shameMaxTitle       = "Worthless Toy"
	trustMaxAchievement = "Bonded Dreamer"
	trustMaxXP          = 25
)

func clampMeter(v int) int { return min(max(v, 0), meterMax) }

// npcsNamedIn returns the indexes of NPCs whose name appears in text.
func npcsNamedIn(npcs []NPC, text string) []int {
	text = strings.ToLower(text)
	var out []int
	for i, n := range npcs {
		name := strings.ToLower(strings.TrimSpace(n.Name))
		if name != "" && strings.Contains(text, name) {
			out = append(out, i)
		}
	}
	return out
}

// adjustNPCShame moves an NPC's shame meter. Reaching the top grants a title once.
func (o *op) adjustNPCShame(i, delta int) {
	n := &o.st.NPCs[i]
	n.Shame = clampMeter(n.Shame + delta)
	if n.Shame >= meterMax {
		o.sink.GrantTitle(shameMaxTitle)
	}
}

// adjustNPCTrust moves an NPC's trust meter. The first NPC to reach full
// trust earns a one-off XP award.
func (o *op) adjustNPCTrust(i, delta int) {
	n := &o.st.NPCs[i]
	n.Trust = clampMeter(n.Trust + delta)
	if n.Trust >= meterMax && !slices.Contains(o.st.NPCAchievements, trustMaxAchievement) {
		o.st.NPCAchievements = append(o.st.NPCAchievements, trustMaxAchievement)
		o.sink.GrantXP(trustMaxXP)
	}
}

// shameNamedNPCs raises shame on every NPC named in text and returns their ids.
func (o *op) shameNamedNPCs(text string, delta int) []string {
	var ids []string
	for _, i := range npcsNamedIn(o.st.NPCs, text) {
		o.adjustNPCShame(i, delta)
		ids = append(ids, o.st.NPCs[i].ID)
	}
	return ids
}

// trustNamedNPCs raises trust on every NPC named in text and returns their ids.
func (o *op) trustNamedNPCs(text string, delta int) []string {
	var ids []string
	for _, i := range npcsNamedIn(o.st.NPCs, text) {
		o.adjustNPCTrust(i, delta)
		ids = append(ids, o.st.NPCs[i].ID)
	}
	return ids
}

type NPCInput struct {
	Name string
	Role string
	Bio  string
}

// ensureNPC returns the NPC with the given name, creating it with starting
// meters when missing.
func (o *op) ensureNPC(in NPCInput) (NPC, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return NPC{}, InputError{Field: "name", Reason: "is required"}
	}
	if i := slices.IndexFunc(o.st.NPCs, func(n NPC) bool { return strings.EqualFold(n.Name, name) }); i >= 0 {
		return o.st.NPCs[i], nil
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = "Friend"
	}
	n := NPC{ID: "npc-" + o.newID(), Name: name, Role: role, Trust: 30, Shame: 10, Bio: in.Bio}
	o.st.NPCs = append(o.st.NPCs, n)
	return n, nil
}

// npcsInEntry bumps the dream count of NPCs met in a journal entry.
func (o *op) npcsInEntry(e JournalEntry) {
	for i := range o.st.NPCs {
		if slices.ContainsFunc(e.Companions, func(name string) bool { return strings.EqualFold(name, o.st.NPCs[i].Name) }) {
			o.st.NPCs[i].DreamCount++
		}
	}
}
