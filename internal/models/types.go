package models

// MoodEntry is a single mood submission. Entries are append-only and immutable
// once stored; insertion order is chronological order.
type MoodEntry struct {
	Mood         int    `json:"mood"`   // 0..4
	Stress       int    `json:"stress"` // 1..5 from check-ins, 0..5 after day completion
	Feeling      string `json:"feeling,omitempty"`
	Context      string `json:"context,omitempty"`
	DayCompleted int    `json:"dayCompleted,omitempty"` // challenge day this entry closed out, 0 if none
	Timestamp    string `json:"timestamp"`              // RFC3339
}

// FitnessSnapshot carries one day of Google Fit metrics. It is passed
// per-request and never persisted as its own record.
type FitnessSnapshot struct {
	StepsToday       int     `json:"stepsToday"`
	HeartPoints      float64 `json:"heartPoints"`
	RestingHeartRate float64 `json:"restingHeartRate,omitempty"`
	AvgHeartRate     float64 `json:"avgHeartRate,omitempty"`
	SleepHours       float64 `json:"sleepHours,omitempty"`
}

// Severity is a stress classification tier.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very_high"
)

// Rank orders severities so monotonicity can be checked numerically.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	case SeverityVeryHigh:
		return 4
	default:
		return 0
	}
}

// StressAssessment is the evaluator's output. It is recomputed on every check
// and cached once as the dashboard's lastStressAlert.
type StressAssessment struct {
	Severity  Severity `json:"severity"`
	AvgStress float64  `json:"avgStress"`
	AvgMood   float64  `json:"avgMood"`
	Reasons   []string `json:"reasons"`
	CheckedAt string   `json:"checkedAt,omitempty"`
}

// ChallengeStatus is the lifecycle state of a challenge instance.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeDiscarded ChallengeStatus = "discarded"
)

// GeneratedBy records which path produced a challenge draft.
const (
	GeneratedByAI         = "AI"
	GeneratedByDataDriven = "DataDriven"
	GeneratedByDefault    = "Default"
)

// TaskProgress tracks one task within a challenge day. Tasks carry a stable
// synthetic ID assigned at instantiation; matching falls back to the name for
// instances stored before IDs existed.
type TaskProgress struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Duration  string   `json:"duration,omitempty"`
	Technique string   `json:"technique,omitempty"`
	Steps     []string `json:"steps,omitempty"`
	Impact    string   `json:"impact,omitempty"`
	Completed bool     `json:"completed"`
}

// DayProgress tracks one day of a challenge instance.
type DayProgress struct {
	Day           int            `json:"day"`
	Theme         string         `json:"theme,omitempty"`
	Objective     string         `json:"objective,omitempty"`
	Completed     bool           `json:"completed"`
	CompletedTime string         `json:"completedTime,omitempty"`
	Tasks         []TaskProgress `json:"tasks"`
}

// ChallengeInstance is the persisted, mutable state of one recovery challenge.
// Terminal statuses are final; instances are retained for history, never deleted.
type ChallengeInstance struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Difficulty  string          `json:"difficulty,omitempty"`
	Description string          `json:"description,omitempty"`
	StartTime   string          `json:"startTime,omitempty"`
	EndTime     string          `json:"endTime,omitempty"`
	Status      ChallengeStatus `json:"status"`
	Days        []DayProgress   `json:"days"`
	GeneratedBy string          `json:"generatedBy"`
	Pattern     string          `json:"pattern,omitempty"`
	AvgStress   float64         `json:"avgStress,omitempty"`
	AvgMood     float64         `json:"avgMood,omitempty"`
}

// CompletedChallenge is the compact history record appended to the dashboard
// when a challenge finishes.
type CompletedChallenge struct {
	ChallengeID   string `json:"challengeId"`
	Name          string `json:"name"`
	CompletedDate string `json:"completedDate"`
	DaysCompleted int    `json:"daysCompleted"`
}

// Dashboard is the per-user summary namespace inside the document.
type Dashboard struct {
	CompletedChallenges []CompletedChallenge `json:"completedChallenges"`
	LastStressAlert     *StressAssessment    `json:"lastStressAlert,omitempty"`
}

// Recommendation is a single suggestion shown on the dashboard.
type Recommendation struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Source string `json:"source"` // "AI" or "Default"
}

// Alert is the payload fanned out to SSE subscribers.
type Alert struct {
	Channel   string      `json:"channel"`
	UserID    string      `json:"userId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}
