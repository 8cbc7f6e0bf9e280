package challenge

// Pattern is the selector's categorical diagnosis of a user's recent state.
type Pattern string

const (
	PatternHighStressLowMood  Pattern = "HighStressLowMood"
	PatternHighStress         Pattern = "HighStress"
	PatternLowMood            Pattern = "LowMood"
	PatternIncreasingStress   Pattern = "IncreasingStress"
	PatternLowActivityOrSleep Pattern = "LowActivityOrSleep"
	PatternDefault            Pattern = "Default"
)

// Task is one activity inside a day plan. Reduction percentages are static
// content for the UI, not a computed guarantee.
type Task struct {
	Name      string
	Duration  string
	Technique string
	Steps     []string
	Impact    string
}

// DayPlan is one day of a challenge template.
type DayPlan struct {
	Day       int
	Theme     string
	Objective string
	Tasks     []Task
}

// Template is a complete three-day recovery challenge shape.
type Template struct {
	Name        string
	Difficulty  string
	Description string
	Days        []DayPlan
}

// TemplateFor returns the template for a pattern, falling back to the
// balanced default for unknown patterns.
func TemplateFor(p Pattern) Template {
	if tpl, ok := catalog[p]; ok {
		return tpl
	}
	return catalog[PatternDefault]
}

// catalog is the canonical template set: one per detected pattern plus the
// balanced default. Keep names stable; stored instances reference them.
var catalog = map[Pattern]Template{
	PatternHighStressLowMood: {
		Name:        "Deep Reset",
		Difficulty:  "gentle",
		Description: "Three slow days to bring stress down and mood up at the same time. Short, low-effort practices only.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Slow everything down",
				Objective: "Lower physical arousal before working on mood",
				Tasks: []Task{
					{
						Name:      "Extended exhale breathing",
						Duration:  "8 minutes",
						Technique: "4-7-8 breathing",
						Steps: []string{
							"Sit somewhere you will not be interrupted",
							"Inhale through the nose for 4 counts",
							"Hold for 7 counts, exhale slowly for 8",
							"Repeat for eight rounds, twice today",
						},
						Impact: "Expected stress reduction: ~20%",
					},
					{
						Name:      "One small comfort",
						Duration:  "15 minutes",
						Technique: "Behavioral activation",
						Steps: []string{
							"Pick one small activity you usually enjoy",
							"Do it without multitasking",
							"Write one sentence about how it felt",
						},
						Impact: "Expected mood lift: ~10%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Gentle movement",
				Objective: "Use light activity to discharge tension",
				Tasks: []Task{
					{
						Name:      "Unhurried walk",
						Duration:  "20 minutes",
						Technique: "Mindful walking",
						Steps: []string{
							"Walk outside at a comfortable pace",
							"Leave your phone in your pocket",
							"Notice five things you can see or hear",
						},
						Impact: "Expected stress reduction: ~15%",
					},
					{
						Name:      "Tension scan",
						Duration:  "10 minutes",
						Technique: "Progressive muscle relaxation",
						Steps: []string{
							"Lie down and close your eyes",
							"Tense and release each muscle group from feet to face",
							"Hold each tension for five seconds before releasing",
						},
						Impact: "Expected stress reduction: ~15%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Reconnect",
				Objective: "End the reset with something that matters to you",
				Tasks: []Task{
					{
						Name:      "Reach out",
						Duration:  "15 minutes",
						Technique: "Social connection",
						Steps: []string{
							"Message or call someone you trust",
							"Share one honest thing about your week",
							"Ask them one question about theirs",
						},
						Impact: "Expected mood lift: ~20%",
					},
					{
						Name:      "Three good things",
						Duration:  "10 minutes",
						Technique: "Gratitude journaling",
						Steps: []string{
							"Write down three things that went okay this week",
							"For each, note why it happened",
							"Keep the note somewhere you will see it tomorrow",
						},
						Impact: "Expected mood lift: ~15%",
					},
				},
			},
		},
	},
	PatternHighStress: {
		Name:        "Pressure Release",
		Difficulty:  "moderate",
		Description: "A three-day plan focused on discharging acute stress through breath, movement and boundaries.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Downshift",
				Objective: "Interrupt the stress response directly",
				Tasks: []Task{
					{
						Name:      "Box breathing breaks",
						Duration:  "5 minutes, three times",
						Technique: "Box breathing",
						Steps: []string{
							"Inhale 4, hold 4, exhale 4, hold 4",
							"Run four rounds per break",
							"Schedule breaks for morning, midday and evening",
						},
						Impact: "Expected stress reduction: ~20%",
					},
					{
						Name:      "Worry dump",
						Duration:  "10 minutes",
						Technique: "Expressive writing",
						Steps: []string{
							"Set a timer and write every worry down without editing",
							"Mark the two you can actually influence this week",
							"Park the rest on the page",
						},
						Impact: "Expected stress reduction: ~15%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Burn it off",
				Objective: "Convert stress energy into movement",
				Tasks: []Task{
					{
						Name:      "Brisk walk or jog",
						Duration:  "25 minutes",
						Technique: "Moderate cardio",
						Steps: []string{
							"Pick a pace where talking is possible but not easy",
							"Keep moving for the full duration",
							"Finish with two minutes of slow walking",
						},
						Impact: "Expected stress reduction: ~25%",
					},
					{
						Name:      "Screen sunset",
						Duration:  "evening",
						Technique: "Stimulus control",
						Steps: []string{
							"Pick a shutdown time one hour before bed",
							"Put screens out of reach after it",
							"Replace with reading, stretching or music",
						},
						Impact: "Expected sleep improvement: ~15%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Protect the gains",
				Objective: "Set one boundary that removes a stressor",
				Tasks: []Task{
					{
						Name:      "Say no once",
						Duration:  "10 minutes",
						Technique: "Boundary setting",
						Steps: []string{
							"Identify one commitment that drains you this week",
							"Decline it, postpone it, or shrink it",
							"Write down how you will say it, then say it",
						},
						Impact: "Expected stress reduction: ~20%",
					},
					{
						Name:      "Recovery check",
						Duration:  "10 minutes",
						Technique: "Reflection",
						Steps: []string{
							"Compare how you feel now to three days ago",
							"Note which practice helped most",
							"Plan when you will repeat it next week",
						},
						Impact: "Expected stress reduction: ~10%",
					},
				},
			},
		},
	},
	PatternLowMood: {
		Name:        "Mood Lift",
		Difficulty:  "gentle",
		Description: "Small, achievable actions that nudge mood upward without demanding energy you do not have.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Light and movement",
				Objective: "Get daylight and gentle motion early",
				Tasks: []Task{
					{
						Name:      "Morning light",
						Duration:  "10 minutes",
						Technique: "Light exposure",
						Steps: []string{
							"Step outside within an hour of waking",
							"Face the brightest part of the sky, not the sun",
							"Leave sunglasses off if comfortable",
						},
						Impact: "Expected mood lift: ~15%",
					},
					{
						Name:      "Two-song stretch",
						Duration:  "8 minutes",
						Technique: "Gentle stretching",
						Steps: []string{
							"Put on two songs you like",
							"Stretch neck, shoulders and back until they end",
							"Breathe slowly throughout",
						},
						Impact: "Expected mood lift: ~10%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Small wins",
				Objective: "Prove to yourself that action is possible",
				Tasks: []Task{
					{
						Name:      "Ten-minute tidy",
						Duration:  "10 minutes",
						Technique: "Behavioral activation",
						Steps: []string{
							"Pick one visible surface or corner",
							"Set a timer for ten minutes and clear it",
							"Stop when the timer ends, even mid-task",
						},
						Impact: "Expected mood lift: ~10%",
					},
					{
						Name:      "Do one kind thing",
						Duration:  "15 minutes",
						Technique: "Prosocial action",
						Steps: []string{
							"Do something small for someone else today",
							"It can be a message, a favor, or a thank-you",
							"Notice how it lands",
						},
						Impact: "Expected mood lift: ~15%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Savoring",
				Objective: "Slow down around the good parts",
				Tasks: []Task{
					{
						Name:      "Savoring walk",
						Duration:  "15 minutes",
						Technique: "Savoring",
						Steps: []string{
							"Walk somewhere mildly pleasant",
							"Stop at three points and take in the details",
							"Name one thing you would want to remember",
						},
						Impact: "Expected mood lift: ~15%",
					},
					{
						Name:      "Highlight reel",
						Duration:  "10 minutes",
						Technique: "Gratitude journaling",
						Steps: []string{
							"Write the best moment of each of the last three days",
							"One sentence each is enough",
							"Read them back once",
						},
						Impact: "Expected mood lift: ~15%",
					},
				},
			},
		},
	},
	PatternIncreasingStress: {
		Name:        "Early Intervention",
		Difficulty:  "moderate",
		Description: "Stress is trending up but not yet high. Catch it now with structure, sleep and scheduled recovery.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Name the trend",
				Objective: "Find what is driving the climb",
				Tasks: []Task{
					{
						Name:      "Stressor audit",
						Duration:  "15 minutes",
						Technique: "Structured reflection",
						Steps: []string{
							"List what changed in the last two weeks",
							"Circle the items that recur daily",
							"Pick the single biggest contributor",
						},
						Impact: "Expected stress reduction: ~10%",
					},
					{
						Name:      "Micro-breaks",
						Duration:  "2 minutes, five times",
						Technique: "Attention reset",
						Steps: []string{
							"Set five reminders across your day",
							"At each, stand, look away from screens and breathe",
							"Do not skip the afternoon ones",
						},
						Impact: "Expected stress reduction: ~10%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Guard the night",
				Objective: "Stop the trend from eating your sleep",
				Tasks: []Task{
					{
						Name:      "Wind-down routine",
						Duration:  "30 minutes",
						Technique: "Sleep hygiene",
						Steps: []string{
							"Fix a lights-out time for tonight",
							"Spend the last half hour on something analog",
							"Keep the bedroom cool and dark",
						},
						Impact: "Expected sleep improvement: ~20%",
					},
					{
						Name:      "Caffeine curfew",
						Duration:  "all day",
						Technique: "Stimulus control",
						Steps: []string{
							"No caffeine after 14:00 today",
							"Swap afternoon coffee for water or decaf",
							"Note any difference at bedtime",
						},
						Impact: "Expected sleep improvement: ~10%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Schedule recovery",
				Objective: "Make recovery a calendar item, not an accident",
				Tasks: []Task{
					{
						Name:      "Book the slot",
						Duration:  "10 minutes",
						Technique: "Implementation intention",
						Steps: []string{
							"Block two 30-minute recovery slots next week",
							"Attach a concrete activity to each",
							"Treat them like meetings",
						},
						Impact: "Expected stress reduction: ~15%",
					},
					{
						Name:      "Steady breathing",
						Duration:  "10 minutes",
						Technique: "Coherent breathing",
						Steps: []string{
							"Breathe in for 5 counts, out for 5 counts",
							"Continue for ten minutes, eyes closed",
							"Let the pace stay slow and even",
						},
						Impact: "Expected stress reduction: ~15%",
					},
				},
			},
		},
	},
	PatternLowActivityOrSleep: {
		Name:        "Recharge Routine",
		Difficulty:  "easy",
		Description: "Movement and sleep are running low. Rebuild both with small daily anchors.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Just move",
				Objective: "Break the inactivity pattern gently",
				Tasks: []Task{
					{
						Name:      "Step starter",
						Duration:  "15 minutes",
						Technique: "Walking",
						Steps: []string{
							"Take a 15-minute walk at any pace",
							"Split it into three 5-minute walks if needed",
							"Count it done regardless of distance",
						},
						Impact: "Expected energy lift: ~15%",
					},
					{
						Name:      "Set a sleep anchor",
						Duration:  "5 minutes",
						Technique: "Sleep scheduling",
						Steps: []string{
							"Pick a consistent wake time for the next three days",
							"Set the alarm now",
							"Get up at that time even after a bad night",
						},
						Impact: "Expected sleep improvement: ~15%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Stack the habit",
				Objective: "Attach movement to something you already do",
				Tasks: []Task{
					{
						Name:      "Habit stack walk",
						Duration:  "20 minutes",
						Technique: "Habit stacking",
						Steps: []string{
							"Pair a walk with an existing routine, like lunch",
							"Do it immediately after the routine, no gap",
							"Note the pairing so you can repeat it",
						},
						Impact: "Expected energy lift: ~15%",
					},
					{
						Name:      "Bedroom audit",
						Duration:  "15 minutes",
						Technique: "Sleep hygiene",
						Steps: []string{
							"Remove one source of light and one of noise",
							"Charge your phone outside arm's reach",
							"Lower the temperature a notch if you can",
						},
						Impact: "Expected sleep improvement: ~15%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Lock it in",
				Objective: "Turn three days into a default",
				Tasks: []Task{
					{
						Name:      "Pick your minimum",
						Duration:  "10 minutes",
						Technique: "Minimum viable habit",
						Steps: []string{
							"Choose the smallest daily movement you will commit to",
							"Make it laughably easy, ten minutes or less",
							"Write it where you will see it each morning",
						},
						Impact: "Expected energy lift: ~10%",
					},
					{
						Name:      "Wind-down repeat",
						Duration:  "30 minutes",
						Technique: "Sleep hygiene",
						Steps: []string{
							"Repeat the same pre-bed routine as yesterday",
							"Same order, same time",
							"Consistency matters more than the contents",
						},
						Impact: "Expected sleep improvement: ~20%",
					},
				},
			},
		},
	},
	PatternDefault: {
		Name:        "Balanced Wellness",
		Difficulty:  "easy",
		Description: "No red flags detected. A light three-day routine to keep mood and stress where they are.",
		Days: []DayPlan{
			{
				Day:       1,
				Theme:     "Check in",
				Objective: "Notice your baseline on purpose",
				Tasks: []Task{
					{
						Name:      "Body scan",
						Duration:  "10 minutes",
						Technique: "Mindfulness",
						Steps: []string{
							"Sit or lie comfortably and close your eyes",
							"Move attention slowly from feet to head",
							"Note areas of tension without fixing them",
						},
						Impact: "Expected stress reduction: ~10%",
					},
					{
						Name:      "Intent for the week",
						Duration:  "5 minutes",
						Technique: "Goal setting",
						Steps: []string{
							"Write one sentence about what a good week looks like",
							"Keep it realistic and specific",
							"Revisit it on day three",
						},
						Impact: "Expected mood lift: ~5%",
					},
				},
			},
			{
				Day:       2,
				Theme:     "Keep moving",
				Objective: "Maintain the habits that are working",
				Tasks: []Task{
					{
						Name:      "Favorite activity",
						Duration:  "30 minutes",
						Technique: "Preferred exercise",
						Steps: []string{
							"Do whatever movement you already enjoy",
							"Keep the intensity comfortable",
							"Finish while you still want more",
						},
						Impact: "Expected energy lift: ~15%",
					},
					{
						Name:      "Hydration check",
						Duration:  "all day",
						Technique: "Self-care basics",
						Steps: []string{
							"Keep water within reach all day",
							"Drink a glass with each meal",
							"Notice afternoon energy compared to usual",
						},
						Impact: "Expected energy lift: ~5%",
					},
				},
			},
			{
				Day:       3,
				Theme:     "Reflect and continue",
				Objective: "Close the loop and carry one habit forward",
				Tasks: []Task{
					{
						Name:      "Week review",
						Duration:  "10 minutes",
						Technique: "Reflection",
						Steps: []string{
							"Reread your day-one intent",
							"Note what matched it and what did not",
							"Choose one habit to keep next week",
						},
						Impact: "Expected mood lift: ~10%",
					},
					{
						Name:      "Quiet ten",
						Duration:  "10 minutes",
						Technique: "Unstructured rest",
						Steps: []string{
							"Spend ten minutes doing nothing scheduled",
							"No screens, no chores",
							"Boredom counts as success here",
						},
						Impact: "Expected stress reduction: ~10%",
					},
				},
			},
		},
	},
}
