// Package domain defines the business logic for the devpulse service.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPresenceState is returned when an update carries a state outside the allowed set.
var ErrInvalidPresenceState = errors.New("invalid presence state")

// PresenceState describes what the developer is currently doing.
type PresenceState string

const (
	PresenceStateWorking PresenceState = "working"
	PresenceStateBreak   PresenceState = "break"
	PresenceStateOffline PresenceState = "offline"
)

// ParsePresenceState validates a raw state value against the allowed set.
func ParsePresenceState(raw string) (PresenceState, error) {
	switch PresenceState(raw) {
	case PresenceStateWorking, PresenceStateBreak, PresenceStateOffline:
		return PresenceState(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPresenceState, raw)
	}
}

// HistoryLimit bounds the activity history kept on the presence record.
const HistoryLimit = 10

// StaleAfter is how long a presence record stays trustworthy without a heartbeat.
const StaleAfter = 10 * time.Minute

// ActivityEntry is one immutable line in the presence record's activity log.
type ActivityEntry struct {
	ID        string        `json:"id"`
	State     PresenceState `json:"state"`
	Label     string        `json:"label"`
	Timestamp time.Time     `json:"timestamp"`
}

// PresenceRecord is the canonical, server-owned record of development presence.
// History is ordered newest first and never exceeds HistoryLimit entries.
type PresenceRecord struct {
	State             PresenceState   `json:"state"`
	CurrentTask       string          `json:"currentTask"`
	ActivityType      string          `json:"activityType"`
	SceneName         string          `json:"sceneName"`
	ToolVersion       string          `json:"toolVersion"`
	IsInteractiveMode bool            `json:"isInteractiveMode"`
	TotalTodayHours   float64         `json:"totalTodayHours"`
	TotalWeekHours    float64         `json:"totalWeekHours"`
	ProductiveStreak  int             `json:"productiveStreak"`
	LastUpdated       time.Time       `json:"lastUpdated"`
	History           []ActivityEntry `json:"history"`
}

// DefaultPresence is the record served before the editor plugin has ever reported in.
func DefaultPresence() PresenceRecord {
	return PresenceRecord{
		State:        PresenceStateOffline,
		CurrentTask:  "Not working",
		ActivityType: "Idle",
		History:      []ActivityEntry{},
	}
}

// PresenceUpdate is a partial update from the editor plugin. State is mandatory;
// nil fields inherit the previous record's value. A heartbeat refreshes scalars
// and LastUpdated without logging a visible activity entry.
type PresenceUpdate struct {
	State             string
	CurrentTask       *string
	ActivityType      *string
	SceneName         *string
	ToolVersion       *string
	IsInteractiveMode *bool
	TotalTodayHours   *float64
	TotalWeekHours    *float64
	ProductiveStreak  *int
	IsHeartbeat       bool
}

// Merge reconciles a partial update into the previous record and returns the new
// canonical record. LastUpdated is always stamped to now; the activity history is
// only touched for non-heartbeat updates, where a new entry built from the
// post-merge fields is prepended and the history truncated to HistoryLimit.
func Merge(prev PresenceRecord, upd PresenceUpdate, now time.Time) (PresenceRecord, error) {
	state, err := ParsePresenceState(upd.State)
	if err != nil {
		return PresenceRecord{}, err
	}

	next := prev
	next.State = state
	next.LastUpdated = now.UTC()

	if upd.CurrentTask != nil {
		next.CurrentTask = *upd.CurrentTask
	}
	if upd.ActivityType != nil {
		next.ActivityType = *upd.ActivityType
	}
	if upd.SceneName != nil {
		next.SceneName = *upd.SceneName
	}
	if upd.ToolVersion != nil {
		next.ToolVersion = *upd.ToolVersion
	}
	if upd.IsInteractiveMode != nil {
		next.IsInteractiveMode = *upd.IsInteractiveMode
	}
	if upd.TotalTodayHours != nil {
		next.TotalTodayHours = *upd.TotalTodayHours
	}
	if upd.TotalWeekHours != nil {
		next.TotalWeekHours = *upd.TotalWeekHours
	}
	if upd.ProductiveStreak != nil {
		next.ProductiveStreak = *upd.ProductiveStreak
	}

	if upd.IsHeartbeat {
		return next, nil
	}

	entry := ActivityEntry{
		ID:        uuid.NewString(),
		State:     next.State,
		Label:     fmt.Sprintf("%s — %s", next.ActivityType, next.CurrentTask),
		Timestamp: next.LastUpdated,
	}

	history := make([]ActivityEntry, 0, len(prev.History)+1)
	history = append(history, entry)
	history = append(history, prev.History...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	next.History = history

	return next, nil
}

// IsStale reports whether the record's last heartbeat is older than StaleAfter.
func IsStale(lastUpdated, now time.Time) bool {
	return now.Sub(lastUpdated) > StaleAfter
}

// EffectiveState is the state a consumer should display: stale records present
// as offline regardless of what they claim.
func EffectiveState(state PresenceState, lastUpdated, now time.Time) PresenceState {
	if IsStale(lastUpdated, now) {
		return PresenceStateOffline
	}
	return state
}
