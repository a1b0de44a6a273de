package engine

import "time"

// Built-in seed data, written to the store the first time a key is read.

func defaultRituals() []Ritual {
	return []Ritual{
		{ID: "morning_devotion", Name: "Morning Devotion", Type: RecurrenceDaily, XP: 100, Obedience: 10},
		{ID: "dream_recall", Name: "Dream Recall", Type: RecurrenceDaily, XP: 60, Obedience: 5},
		{ID: "evening_confession", Name: "Evening Confession", Type: RecurrenceDaily, XP: 80, Obedience: 15},
		{ID: "weekly_cleansing", Name: "Weekly Cleansing", Type: RecurrenceWeekly, XP: 250, Obedience: 30},
		{ID: "kneel_for_selene", Name: "Kneel for Selene", Type: RecurrenceWeekly, XP: 150, Obedience: 20},
		{ID: "full_moon_vigil", Name: "Full Moon Vigil", Type: RecurrenceMonthly, XP: 600, Obedience: 60},
		{ID: "solstice_rite", Name: "Solstice Rite", Type: RecurrenceYearly, XP: 2000, Obedience: 200},
	}
}

func defaultDungeons() []Dungeon {
	return []Dungeon{
		{
			ID:         "caves_of_shame",
			Name:       "Caves of Shame",
			Difficulty: "easy",
			Unlocked:   true,
			RoomPool: []RoomTemplate{
				{Type: RoomTrial, Subtype: "shame", Desc: "A voice demands a confession before the door will open.", Weight: 3},
				{Type: RoomTrial, Subtype: "combat", Desc: "Shadows of old habits block the tunnel.", Weight: 2},
				{Type: RoomLoot, Desc: "A damp alcove glints with something forgotten.", Weight: 2},
				{Type: RoomBoss, Subtype: "shame", Desc: "The Echo of Regret rises from the pool."},
			},
			LootPool: []Loot{
				{ID: "echo_shard", Name: "Echo Shard", Rarity: "common", Desc: "Hums with half-remembered words."},
				{ID: "veil_of_candor", Name: "Veil of Candor", Rarity: "rare", Desc: "Worn by those who no longer hide."},
			},
			Boss: &Boss{
				Name:     "Echo of Regret",
				Health:   100,
				Attacks:  []string{"Whispered Doubt", "Mirror Lash"},
				Weakness: "confession",
				Rewards:  BossRewards{XP: 150, Tokens: 20},
			},
		},
		{
			ID:         "temple_of_obedience",
			Name:       "Temple of Obedience",
			Difficulty: "medium",
			RoomPool: []RoomTemplate{
				{Type: RoomTrial, Subtype: "obedience", Desc: "Kneel at the altar and recite the vows.", Weight: 3},
				{Type: RoomTrial, Subtype: "ritual", Desc: "Light the braziers in the proper order.", Weight: 2},
				{Type: RoomTrial, Subtype: "puzzle", Desc: "The floor tiles shift beneath a riddle.", Weight: 1},
				{Type: RoomLoot, Desc: "An offering bowl, still warm.", Weight: 2},
				{Type: RoomBoss, Subtype: "obedience", Desc: "The High Warden bars the sanctum."},
			},
			LootPool: []Loot{
				{ID: "warden_seal", Name: "Warden's Seal", Rarity: "uncommon"},
				{ID: "incense_of_focus", Name: "Incense of Focus", Rarity: "common"},
				{ID: "collar_of_devotion", Name: "Collar of Devotion", Rarity: "epic"},
			},
			Boss: &Boss{
				Name:     "The High Warden",
				Health:   180,
				Attacks:  []string{"Iron Decree", "Silencing Gaze"},
				Weakness: "submission",
				Rewards:  BossRewards{XP: 300, Tokens: 40},
			},
		},
		{
			ID:         "labyrinth_of_dreams",
			Name:       "Labyrinth of Dreams",
			Difficulty: "hard",
			RoomPool: []RoomTemplate{
				{Type: RoomTrial, Subtype: "psychic", Desc: "A corridor folds into itself; hold the image steady.", Weight: 3},
				{Type: RoomTrial, Subtype: "puzzle", Desc: "Doors that open only when forgotten.", Weight: 2},
				{Type: RoomTrial, Subtype: "combat", Desc: "A nightmare takes the shape of a hound.", Weight: 1},
				{Type: RoomLoot, Desc: "A chest of moonlight.", Weight: 2},
				{Type: RoomBoss, Subtype: "psychic", Desc: "The Dreaming Minotaur waits at the centre."},
			},
			LootPool: []Loot{
				{ID: "lucid_lens", Name: "Lucid Lens", Rarity: "rare"},
				{ID: "thread_of_ariadne", Name: "Thread of Ariadne", Rarity: "legendary"},
			},
			Boss: &Boss{
				Name:     "Dreaming Minotaur",
				Health:   260,
				Attacks:  []string{"Maze Shift", "Sleepless Roar"},
				Weakness: "lucidity",
				Rewards:  BossRewards{XP: 500, Tokens: 75},
			},
		},
	}
}

func defaultQuestLedger(now time.Time) QuestLedger {
	day := int64(24 * time.Hour / time.Millisecond)
	quests := []Quest{
		{
			ID: "first_lucid", Title: "First Lucid Dream", Desc: "Realise you are dreaming and hold on to it.",
			Type: QuestTypeDream, Status: QuestActive, Category: CategoryMain, Difficulty: DifficultyMedium, Priority: PriorityHigh,
			Steps: []QuestStep{
				{ID: "s1", Text: "Record a dream", Required: true},
				{ID: "s2", Text: "Notice a dream sign", Required: true},
			},
			Rewards: QuestRewards{XP: 300, Tokens: 30, Achievement: "lucid_initiate", Buffs: []string{"clarity"}},
			Tags:    []string{"lucid"},
		},
		{
			ID: "temple_pilgrimage", Title: "Pilgrimage to the Temple", Desc: "Find the Temple of Dreams.",
			Type: QuestTypeDream, Status: QuestLocked, Category: CategoryExploration, Difficulty: DifficultyHard, Priority: PriorityMedium,
			Steps:   []QuestStep{{ID: "s1", Text: "Enter the temple in a dream", Required: true}},
			Rewards: QuestRewards{XP: 500, Tokens: 50, Title: "Pilgrim"},
			Tags:    []string{"temple"},
			Unlocks: []string{"first_lucid"},
		},
		{
			ID: "daily_obedience", Title: "Daily Obedience", Desc: "Keep the day's vows.",
			Type: QuestTypeIRL, Status: QuestActive, Category: CategoryDaily, Difficulty: DifficultyEasy, Priority: PriorityMedium,
			Steps: []QuestStep{
				{ID: "s1", Text: "Complete a ritual", Required: true},
				{ID: "s2", Text: "Log one honest note", Required: false},
			},
			Rewards:   QuestRewards{XP: 80, Tokens: 10, Buffs: []string{"obedience"}},
			Tags:      []string{"ritual"},
			Recurring: RecurrenceDaily,
		},
		{
			ID: "weekly_reflection", Title: "Weekly Reflection", Desc: "Look back on the week.",
			Type: QuestTypeIRL, Status: QuestActive, Category: CategoryWeekly, Difficulty: DifficultyMedium, Priority: PriorityLow,
			Steps: []QuestStep{
				{ID: "s1", Text: "Review journal entries", Required: true},
				{ID: "s2", Text: "Write one intention", Required: true},
			},
			Rewards:   QuestRewards{XP: 200, Tokens: 20},
			Recurring: RecurrenceWeekly,
		},
		{
			ID: "seven_day_trial", Title: "Seven Day Trial", Desc: "Finish within a week or fail.",
			Type: QuestTypeIRL, Status: QuestActive, Category: CategoryEpic, Difficulty: DifficultyEpic, Priority: PriorityUrgent,
			Steps: []QuestStep{
				{ID: "s1", Text: "Clear a dungeon", Required: true},
				{ID: "s2", Text: "Confess once", Required: true},
			},
			Rewards:     QuestRewards{XP: 1000, Tokens: 100, Items: []string{"trial_medal"}},
			TimeLimitMS: 7 * day,
		},
	}
	for i := range quests {
		quests[i].CreatedAt = now
		quests[i].UpdatedAt = now
	}
	return QuestLedger{Quests: quests}
}

func defaultQuestlines() []Questline {
	return []Questline{
		{
			ID:          "path_of_the_veil",
			Name:        "Path of the Veil",
			Description: "Follow your companion through the layers of the dream.",
			Realm:       "dream",
			CompanionID: "luna",
			Branching:   true,
			Stages: []QuestStage{
				{ID: "threshold", Title: "The Threshold", XP: 100, Reward: &QuestReward{Description: "A first step."}},
				{
					ID: "crossroads", Title: "The Crossroads", XP: 150,
					Description: "Orrin waits where the paths split.",
					BranchChoices: []QuestBranch{
						{ID: "light", Title: "Walk toward the light", Reward: &QuestReward{XP: 100, Buff: "Path of Light"}},
						{ID: "shadow", Title: "Descend into shadow", Reward: &QuestReward{XP: 150, Item: "shadow_key"}},
					},
				},
				{ID: "veil", Title: "Beyond the Veil", XP: 300, Reward: &QuestReward{Item: "veil_fragment"}},
			},
			Reward: &QuestReward{XP: 500, Title: "Veilwalker", Description: "You have seen the other side."},
		},
	}
}

func defaultAchievements() []Achievement {
	return []Achievement{
		{ID: "lucid_initiate", Title: "Lucid Initiate", Desc: "Complete your first lucid dream quest.", Category: AchievementDream,
			Trigger: Trigger{Type: TriggerQuestCompleted, Target: "first_lucid"}, Reward: AchievementReward{XP: 100}},
		{ID: "dream_flyer", Title: "Sky Dancer", Desc: "Fly in a dream.", Category: AchievementDream,
			Trigger: Trigger{Type: TriggerDreamTag, Target: "flying"}, Reward: AchievementReward{XP: 75, Tokens: 5}},
		{ID: "ritual_keeper", Title: "Ritual Keeper", Desc: "Have three rituals done in the same period.", Category: AchievementRitual,
			Trigger: Trigger{Type: TriggerRitualCompleted, Value: 3}, Reward: AchievementReward{XP: 150, Tokens: 15}},
		{ID: "first_confession", Title: "Unburdened", Desc: "Log a confession.", Category: AchievementShame,
			Trigger: Trigger{Type: TriggerConfessionLogged, Value: 1}, Reward: AchievementReward{XP: 50}},
		{ID: "token_burner", Title: "Ash and Ember", Desc: "Burn ten dirty tokens.", Category: AchievementShame, Secret: true,
			Trigger: Trigger{Type: TriggerShameCounter, Counter: "dirtyTokensBurned", Value: 10}, Reward: AchievementReward{XP: 200, Title: "Ember"}},
		{ID: "dungeon_delver", Title: "Dungeon Delver", Desc: "Clear two different dungeons.", Category: AchievementDungeon,
			Trigger: Trigger{Type: TriggerDungeonCleared, Value: 2}, Reward: AchievementReward{XP: 250, Tokens: 25}},
		{ID: "companion_bond", Title: "Grown Together", Desc: "Evolve a companion.", Category: AchievementCompanion,
			Trigger: Trigger{Type: TriggerCompanionEvolved, Value: 1}, Reward: AchievementReward{XP: 200}},
		{ID: "penitent", Title: "Penitent", Desc: "Carry three punishments at once.", Category: AchievementShame, Secret: true,
			Trigger: Trigger{Type: TriggerPunishmentTier, Value: 3}, Reward: AchievementReward{XP: 100, Title: "Penitent"}},
		{ID: "temple_found", Title: "Temple Found", Desc: "Unlock the Temple of Dreams on the map.", Category: AchievementMap,
			Trigger: Trigger{Type: TriggerMapNodeUnlocked, Target: "temple_of_dreams"}, Reward: AchievementReward{XP: 100}},
		{ID: "cartographer", Title: "Cartographer", Desc: "Unlock every map node.", Category: AchievementMap,
			Trigger: Trigger{Type: TriggerMapAllUnlocked}, Reward: AchievementReward{XP: 500, Tokens: 50, Title: "Cartographer"}},
		{ID: "quest_adept", Title: "Quest Adept", Desc: "Complete five quests.", Category: AchievementQuest,
			Trigger: Trigger{Type: TriggerQuestsCompleted, Value: 5}, Reward: AchievementReward{XP: 300, Tokens: 30}},
	}
}

func defaultBuffs() []Buff {
	return []Buff{
		{ID: "dawn_focus", Name: "Dawn Focus", Source: "Morning Devotion", Type: BuffXPMultiplier, Value: 1.1, Duration: "6h"},
		{ID: "clear_conscience", Name: "Clear Conscience", Source: "Evening Confession", Type: BuffObedienceGain, Value: 1.2, Duration: "1d"},
		{ID: "path_of_light", Name: "Path of Light", Source: "Path of Light", Type: BuffTokenMultiplier, Value: 1.25, Duration: "2d"},
	}
}

func defaultCompanions() []Companion {
	return []Companion{
		{ID: "luna", Name: "Luna", Forms: []string{"Moth"}, EvolutionTree: []string{"Moth"}, Level: 1, Bond: 20},
	}
}

func defaultNPCs() []NPC {
	return []NPC{
		{ID: "selene", Name: "Selene", Role: "Mistress", Trust: 30, Shame: 10, Bio: "She keeps the keys to the Temple of Dreams."},
		{ID: "orrin", Name: "Orrin", Role: "Mentor", Trust: 40, Shame: 0, Bio: "An old dreamer who maps the shore of sleep."},
	}
}

func defaultMapNodes() []MapNode {
	return []MapNode{
		{ID: "shore_of_sleep", Name: "Shore of Sleep", Unlocked: true},
		{ID: "temple_of_dreams", Name: "Temple of Dreams"},
		{ID: "astral_gate", Name: "Astral Gate"},
	}
}
