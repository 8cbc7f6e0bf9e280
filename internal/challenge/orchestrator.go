package challenge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mossline/wellspring-server/internal/apperr"
	"github.com/mossline/wellspring-server/internal/models"
	"github.com/mossline/wellspring-server/internal/store"
)

// Publisher fans an event out to alert subscribers. Fire and forget.
type Publisher interface {
	Publish(channel, userID string, payload interface{})
}

// DefaultHistoryLimit caps ListHistory when the caller passes no limit.
const DefaultHistoryLimit = 10

// MoodCapture is the optional post-day-completion mood submission.
type MoodCapture struct {
	Mood    int
	Stress  int
	Feeling string
	Context string
}

// Orchestrator runs the challenge lifecycle against the document store.
// State machine per instance: none → active → {completed | discarded}.
// Terminal states are final.
type Orchestrator struct {
	store  *store.Store
	alerts Publisher
	clock  clockwork.Clock
}

// NewOrchestrator wires the orchestrator. alerts may be nil in tests.
func NewOrchestrator(st *store.Store, alerts Publisher, clock clockwork.Clock) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{store: st, alerts: alerts, clock: clock}
}

// Start persists a draft as a new active challenge and returns the stored copy.
func (o *Orchestrator) Start(userID string, draft *models.ChallengeInstance) (*models.ChallengeInstance, error) {
	if userID == "" {
		return nil, apperr.Validationf("userId is required")
	}
	if draft == nil || len(draft.Days) == 0 {
		return nil, apperr.Validationf("challenge draft with at least one day is required")
	}

	now := o.clock.Now().UTC()
	instance := *draft
	instance.ID = fmt.Sprintf("ch_%d_%s", now.UnixMilli(), shortID())
	instance.StartTime = now.Format(time.RFC3339)
	instance.EndTime = ""
	instance.Status = models.ChallengeActive
	instance.Days = resetProgress(draft.Days)

	err := o.store.Update(func(doc *store.Document) error {
		doc.Challenges[userID] = append(doc.Challenges[userID], cloneInstance(instance))
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.publish("challenge.started", userID, map[string]string{
		"challengeId": instance.ID,
		"name":        instance.Name,
	})
	return &instance, nil
}

// UpdateTaskProgress toggles one task's completed flag. taskRef matches the
// task's synthetic ID first and falls back to the display name for instances
// stored before IDs existed.
func (o *Orchestrator) UpdateTaskProgress(userID, challengeID string, day int, taskRef string, completed bool) (*models.ChallengeInstance, error) {
	if userID == "" || challengeID == "" || taskRef == "" {
		return nil, apperr.Validationf("userId, challengeId and task are required")
	}

	var updated models.ChallengeInstance
	err := o.store.Update(func(doc *store.Document) error {
		inst, err := findActive(doc, userID, challengeID)
		if err != nil {
			return err
		}
		dp, err := findDay(inst, day)
		if err != nil {
			return err
		}
		task := findTask(dp, taskRef)
		if task == nil {
			return apperr.NotFoundf("task %q on day %d of challenge %s", taskRef, day, challengeID)
		}

		task.Completed = completed
		updated = cloneInstance(*inst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompleteDay marks a day done. When every day is complete the challenge
// transitions to completed and exactly one compact record lands on the
// dashboard's completed list. A mood capture, when supplied, is appended to
// the user's history tagged with the day it closed out.
func (o *Orchestrator) CompleteDay(userID, challengeID string, day int, capture *MoodCapture) (*models.ChallengeInstance, error) {
	if userID == "" || challengeID == "" {
		return nil, apperr.Validationf("userId and challengeId are required")
	}

	now := o.clock.Now().UTC()
	var updated models.ChallengeInstance
	var finished bool

	err := o.store.Update(func(doc *store.Document) error {
		inst, err := findActive(doc, userID, challengeID)
		if err != nil {
			return err
		}
		dp, err := findDay(inst, day)
		if err != nil {
			return err
		}

		dp.Completed = true
		dp.CompletedTime = now.Format(time.RFC3339)

		finished = allDaysComplete(inst)
		if finished {
			inst.Status = models.ChallengeCompleted
			inst.EndTime = now.Format(time.RFC3339)
			dash := doc.Dashboard(userID)
			dash.CompletedChallenges = append(dash.CompletedChallenges, models.CompletedChallenge{
				ChallengeID:   inst.ID,
				Name:          inst.Name,
				CompletedDate: now.Format("2006-01-02"),
				DaysCompleted: len(inst.Days),
			})
		}

		if capture != nil {
			doc.MoodEntries[userID] = append(doc.MoodEntries[userID], models.MoodEntry{
				Mood:         capture.Mood,
				Stress:       capture.Stress,
				Feeling:      capture.Feeling,
				Context:      capture.Context,
				DayCompleted: day,
				Timestamp:    now.Format(time.RFC3339),
			})
		}

		updated = cloneInstance(*inst)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finished {
		o.publish("challenge.completed", userID, map[string]string{
			"challengeId": updated.ID,
			"name":        updated.Name,
		})
	}
	return &updated, nil
}

// CompleteChallenge force-completes an active challenge regardless of day state.
func (o *Orchestrator) CompleteChallenge(userID, challengeID string) (*models.ChallengeInstance, error) {
	return o.terminate(userID, challengeID, models.ChallengeCompleted, "challenge.completed")
}

// DiscardChallenge abandons an active challenge. The instance is kept for history.
func (o *Orchestrator) DiscardChallenge(userID, challengeID string) (*models.ChallengeInstance, error) {
	return o.terminate(userID, challengeID, models.ChallengeDiscarded, "challenge.discarded")
}

func (o *Orchestrator) terminate(userID, challengeID string, status models.ChallengeStatus, channel string) (*models.ChallengeInstance, error) {
	if userID == "" || challengeID == "" {
		return nil, apperr.Validationf("userId and challengeId are required")
	}

	now := o.clock.Now().UTC()
	var updated models.ChallengeInstance

	err := o.store.Update(func(doc *store.Document) error {
		inst, err := findActive(doc, userID, challengeID)
		if err != nil {
			return err
		}

		inst.Status = status
		inst.EndTime = now.Format(time.RFC3339)

		if status == models.ChallengeCompleted {
			dash := doc.Dashboard(userID)
			dash.CompletedChallenges = append(dash.CompletedChallenges, models.CompletedChallenge{
				ChallengeID:   inst.ID,
				Name:          inst.Name,
				CompletedDate: now.Format("2006-01-02"),
				DaysCompleted: countCompleteDays(inst),
			})
		}

		updated = cloneInstance(*inst)
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.publish(channel, userID, map[string]string{
		"challengeId": updated.ID,
		"name":        updated.Name,
	})
	return &updated, nil
}

// ListActive returns the user's active challenges, oldest first.
func (o *Orchestrator) ListActive(userID string) ([]models.ChallengeInstance, error) {
	if userID == "" {
		return nil, apperr.Validationf("userId is required")
	}

	var active []models.ChallengeInstance
	err := o.store.View(func(doc *store.Document) error {
		for _, inst := range doc.Challenges[userID] {
			if inst.Status == models.ChallengeActive {
				active = append(active, cloneInstance(inst))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// ListHistory returns terminal challenges, most recent first.
func (o *Orchestrator) ListHistory(userID string, limit int) ([]models.ChallengeInstance, error) {
	if userID == "" {
		return nil, apperr.Validationf("userId is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var history []models.ChallengeInstance
	err := o.store.View(func(doc *store.Document) error {
		list := doc.Challenges[userID]
		for i := len(list) - 1; i >= 0 && len(history) < limit; i-- {
			if list[i].Status != models.ChallengeActive {
				history = append(history, cloneInstance(list[i]))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Dashboard returns the user's dashboard projection.
func (o *Orchestrator) Dashboard(userID string) (*models.Dashboard, error) {
	if userID == "" {
		return nil, apperr.Validationf("userId is required")
	}

	dash := &models.Dashboard{CompletedChallenges: []models.CompletedChallenge{}}
	err := o.store.View(func(doc *store.Document) error {
		if stored, ok := doc.DashboardData[userID]; ok {
			copied := *stored
			copied.CompletedChallenges = append([]models.CompletedChallenge(nil), stored.CompletedChallenges...)
			if stored.LastStressAlert != nil {
				alert := *stored.LastStressAlert
				alert.Reasons = append([]string(nil), alert.Reasons...)
				copied.LastStressAlert = &alert
			}
			dash = &copied
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dash, nil
}

func (o *Orchestrator) publish(channel, userID string, payload interface{}) {
	if o.alerts != nil {
		o.alerts.Publish(channel, userID, payload)
	}
}

func findActive(doc *store.Document, userID, challengeID string) (*models.ChallengeInstance, error) {
	list := doc.Challenges[userID]
	for i := range list {
		if list[i].ID == challengeID && list[i].Status == models.ChallengeActive {
			return &list[i], nil
		}
	}
	return nil, apperr.NotFoundf("active challenge %s for user %s", challengeID, userID)
}

func findDay(inst *models.ChallengeInstance, day int) (*models.DayProgress, error) {
	for i := range inst.Days {
		if inst.Days[i].Day == day {
			return &inst.Days[i], nil
		}
	}
	return nil, apperr.NotFoundf("day %d of challenge %s", day, inst.ID)
}

func findTask(dp *models.DayProgress, ref string) *models.TaskProgress {
	for i := range dp.Tasks {
		if dp.Tasks[i].ID == ref {
			return &dp.Tasks[i]
		}
	}
	for i := range dp.Tasks {
		if dp.Tasks[i].Name == ref {
			return &dp.Tasks[i]
		}
	}
	return nil
}

func allDaysComplete(inst *models.ChallengeInstance) bool {
	for _, d := range inst.Days {
		if !d.Completed {
			return false
		}
	}
	return len(inst.Days) > 0
}

func countCompleteDays(inst *models.ChallengeInstance) int {
	n := 0
	for _, d := range inst.Days {
		if d.Completed {
			n++
		}
	}
	return n
}

// cloneInstance deep-copies an instance. Everything handed back to callers
// (or stored next to a returned value) goes through here so projections never
// alias the Days/Tasks slices inside the live document.
func cloneInstance(inst models.ChallengeInstance) models.ChallengeInstance {
	out := inst
	out.Days = make([]models.DayProgress, len(inst.Days))
	for i, d := range inst.Days {
		nd := d
		nd.Tasks = append([]models.TaskProgress(nil), d.Tasks...)
		for j := range nd.Tasks {
			nd.Tasks[j].Steps = append([]string(nil), nd.Tasks[j].Steps...)
		}
		out.Days[i] = nd
	}
	return out
}

func resetProgress(days []models.DayProgress) []models.DayProgress {
	out := make([]models.DayProgress, len(days))
	for i, d := range days {
		nd := d
		nd.Completed = false
		nd.CompletedTime = ""
		nd.Tasks = make([]models.TaskProgress, len(d.Tasks))
		for j, t := range d.Tasks {
			nt := t
			nt.Completed = false
			if nt.ID == "" {
				nt.ID = uuid.NewString()
			}
			nd.Tasks[j] = nt
		}
		out[i] = nd
	}
	return out
}

func shortID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
