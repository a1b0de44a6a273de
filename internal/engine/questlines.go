package engine

import "slices"

type QuestReward struct {
	XP          int    `json:"xp,omitempty"`
	Item        string `json:"item,omitempty"`
	Title       string `json:"title,omitempty"`
	Buff        string `json:"buff,omitempty"`
	Description string `json:"description,omitempty"`
}

type QuestBranch struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Reward      *QuestReward `json:"reward,omitempty"`
}

type QuestStage struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	XP             int           `json:"xp"`
	Completed      bool          `json:"completed"`
	BranchChoices  []QuestBranch `json:"branchChoices,omitempty"`
	ChosenBranchID string        `json:"chosenBranchId,omitempty"`
	Reward         *QuestReward  `json:"reward,omitempty"`
}

func (s QuestStage) branch(id string) (QuestBranch, bool) {
	i := slices.IndexFunc(s.BranchChoices, func(b QuestBranch) bool { return b.ID == id })
	if i < 0 {
		return QuestBranch{}, false
	}
	return s.BranchChoices[i], true
}

type Questline struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Realm         string       `json:"realm,omitempty"`
	CompanionID   string       `json:"companionId,omitempty"`
	Branching     bool         `json:"branching"`
	Stages        []QuestStage `json:"stages"`
	Reward        *QuestReward `json:"reward,omitempty"`
	Completed     bool         `json:"completed"`
	ActiveStageID string       `json:"activeStageId,omitempty"`
}

// QuestlineProgress is the percentage of completed stages.
func QuestlineProgress(ql Questline) int {
	if len(ql.Stages) == 0 {
		return 0
	}
	done := 0
	for _, s := range ql.Stages {
		if s.Completed {
			done++
		}
	}
	return done * 100 / len(ql.Stages)
}

// ActiveStage returns the first incomplete stage.
func ActiveStage(ql Questline) (QuestStage, bool) {
	for _, s := range ql.Stages {
		if !s.Completed {
			return s, true
		}
	}
	return QuestStage{}, false
}

func findQuestline(qls []Questline, id string) int {
	for i := range qls {
		if qls[i].ID == id {
			return i
		}
	}
	return -1
}

func findStage(stages []QuestStage, id string) int {
	for i := range stages {
		if stages[i].ID == id {
			return i
		}
	}
	return -1
}

func (o *op) awardQuestReward(r *QuestReward) {
	if r == nil {
		return
	}
	o.sink.GrantXP(r.XP)
	if r.XP > 0 {
		o.gainCompanionXP(CompanionQuest, r.XP)
	}
	if r.Item != "" {
		o.sink.GrantItem(r.Item, 1)
	}
	if r.Buff != "" {
		o.sink.triggerSource(r.Buff)
	}
	if r.Title != "" {
		o.sink.GrantTitle(r.Title)
	}
}

// StageResult reports one completeStage call.
type StageResult struct {
	Status Outcome
	Stage  QuestStage
	Branch *QuestBranch
	// NPCsTrusted lists the NPCs named by the stage or its questline.
	NPCsTrusted []string
}

// completeStage finishes a stage. A branching stage needs a known branch,
// passed in or chosen earlier; otherwise nothing changes.
func (o *op) completeStage(questlineID, stageID, branchID string) StageResult {
	qi := findQuestline(o.st.Questlines, questlineID)
	if qi < 0 {
		return StageResult{Status: OutcomeNotFound}
	}
	ql := &o.st.Questlines[qi]
	si := findStage(ql.Stages, stageID)
	if si < 0 {
		return StageResult{Status: OutcomeNotFound}
	}
	stage := &ql.Stages[si]
	if stage.Completed {
		return StageResult{Status: OutcomeAlreadyCompleted, Stage: *stage}
	}

	var chosen *QuestBranch
	if len(stage.BranchChoices) > 0 {
		id := branchID
		if id == "" {
			id = stage.ChosenBranchID
		}
		b, ok := stage.branch(id)
		if !ok {
			return StageResult{Status: OutcomeBranchRequired, Stage: *stage}
		}
		stage.ChosenBranchID = b.ID
		chosen = &b
		o.awardQuestReward(b.Reward)
	}

	o.sink.GrantXP(stage.XP)
	if stage.XP > 0 {
		o.gainCompanionXP(CompanionQuest, stage.XP)
	}
	o.awardQuestReward(stage.Reward)
	stage.Completed = true
	trusted := o.trustNamedNPCs(stage.Title+" "+stage.Description+" "+ql.Name, stageNPCTrust)

	res := StageResult{Status: OutcomeCompleted, Stage: *stage, Branch: chosen, NPCsTrusted: trusted}
	if next, ok := ActiveStage(*ql); ok {
		ql.ActiveStageID = next.ID
		return res
	}
	ql.ActiveStageID = ""
	if !ql.Completed {
		ql.Completed = true
		o.awardQuestReward(ql.Reward)
		o.log.Info("questline completed", "questline", ql.ID)
	}
	res.Status = OutcomeQuestlineCompleted
	return res
}

func (o *op) chooseBranch(questlineID, stageID, branchID string) Outcome {
	qi := findQuestline(o.st.Questlines, questlineID)
	if qi < 0 {
		return OutcomeNotFound
	}
	ql := &o.st.Questlines[qi]
	si := findStage(ql.Stages, stageID)
	if si < 0 {
		return OutcomeNotFound
	}
	stage := &ql.Stages[si]
	if stage.Completed {
		return OutcomeAlreadyCompleted
	}
	if _, ok := stage.branch(branchID); !ok {
		return OutcomeNotFound
	}
	stage.ChosenBranchID = branchID
	return OutcomeUpdated
}

// resetQuestline clears every stage and choice. Rewards already granted stay granted.
func (o *op) resetQuestline(questlineID string) Outcome {
	qi := findQuestline(o.st.Questlines, questlineID)
	if qi < 0 {
		return OutcomeNotFound
	}
	ql := &o.st.Questlines[qi]
	for i := range ql.Stages {
		ql.Stages[i].Completed = false
		ql.Stages[i].ChosenBranchID = ""
	}
	ql.Completed = false
	ql.ActiveStageID = ""
	if len(ql.Stages) > 0 {
		ql.ActiveStageID = ql.Stages[0].ID
	}
	return OutcomeUpdated
}
