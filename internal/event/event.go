// Package event defines the immutable, typed records that make up an
// identity's log, with constructors and byte (de)serialization. The set of
// kinds is closed; folds over events switch exhaustively on Kind.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/skylog-app/skylog/internal/common"
)

// Kind tags one of the six event variants.
type Kind string

const (
	KindTimerStart  Kind = "timer_start"
	KindTimerStop   Kind = "timer_stop"
	KindManualEntry Kind = "manual_entry"
	KindCorrection  Kind = "correction"
	KindGoalSet     Kind = "goal_set"
	KindGoalDelete  Kind = "goal_delete"
)

// Kinds lists every valid event kind.
var Kinds = []Kind{
	KindTimerStart, KindTimerStop, KindManualEntry,
	KindCorrection, KindGoalSet, KindGoalDelete,
}

// Event is one immutable record of a user action. CreatedAt is unix seconds;
// for timer_start and timer_stop it is also the session boundary timestamp.
// Details carries the variant-specific payload.
type Event struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"type"`
	CreatedAt int64           `json:"created_at"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// CorrectionAction says what a correction does to its target.
type CorrectionAction string

const (
	CorrectionDelete  CorrectionAction = "delete"
	CorrectionReplace CorrectionAction = "replace"
)

// Period is a goal's reporting window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// TimerStop references the timer_start it closes.
type TimerStop struct {
	StartEventID string `json:"start_event_id"`
}

// ManualEntry records a session entered after the fact.
type ManualEntry struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Correction amends or deletes a prior event by id. For replace, Start/End
// carry the replacement interval; duration is always re-derived from them.
type Correction struct {
	TargetID string           `json:"target_id"`
	Action   CorrectionAction `json:"action"`
	Start    int64            `json:"start,omitempty"`
	End      int64            `json:"end,omitempty"`
}

// GoalSet declares an outdoor-time target for a period.
type GoalSet struct {
	TargetMinutes int    `json:"target_minutes"`
	Period        Period `json:"period"`
}

// GoalDelete removes the goal_set it references.
type GoalDelete struct {
	GoalID string `json:"goal_id"`
}

func newEvent(kind Kind, createdAt int64, payload any) Event {
	e := Event{ID: uuid.NewString(), Kind: kind, CreatedAt: createdAt}
	if payload != nil {
		// payloads are plain structs; marshalling cannot fail
		b, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		e.Details = b
	}
	return e
}

// NewTimerStart opens a timer at the given unix time.
func NewTimerStart(now int64) Event {
	return newEvent(KindTimerStart, now, nil)
}

// NewTimerStop closes the referenced timer_start at the given unix time.
func NewTimerStop(startEventID string, now int64) Event {
	return newEvent(KindTimerStop, now, TimerStop{StartEventID: startEventID})
}

// NewManualEntry records a session over [start, end].
func NewManualEntry(start, end, now int64) Event {
	return newEvent(KindManualEntry, now, ManualEntry{Start: start, End: end})
}

// NewCorrectionDelete marks a prior event as deleted.
func NewCorrectionDelete(targetID string, now int64) Event {
	return newEvent(KindCorrection, now, Correction{TargetID: targetID, Action: CorrectionDelete})
}

// NewCorrectionReplace replaces a prior session's interval.
func NewCorrectionReplace(targetID string, start, end, now int64) Event {
	return newEvent(KindCorrection, now, Correction{
		TargetID: targetID, Action: CorrectionReplace, Start: start, End: end,
	})
}

// NewGoalSet declares a goal.
func NewGoalSet(targetMinutes int, period Period, now int64) Event {
	return newEvent(KindGoalSet, now, GoalSet{TargetMinutes: targetMinutes, Period: period})
}

// NewGoalDelete removes a goal.
func NewGoalDelete(goalID string, now int64) Event {
	return newEvent(KindGoalDelete, now, GoalDelete{GoalID: goalID})
}

// TimerStop decodes the timer_stop payload.
func (e Event) TimerStop() (TimerStop, error) {
	var v TimerStop
	return v, e.decode(KindTimerStop, &v)
}

// ManualEntry decodes the manual_entry payload.
func (e Event) ManualEntry() (ManualEntry, error) {
	var v ManualEntry
	return v, e.decode(KindManualEntry, &v)
}

// Correction decodes the correction payload.
func (e Event) Correction() (Correction, error) {
	var v Correction
	return v, e.decode(KindCorrection, &v)
}

// GoalSet decodes the goal_set payload.
func (e Event) GoalSet() (GoalSet, error) {
	var v GoalSet
	return v, e.decode(KindGoalSet, &v)
}

// GoalDelete decodes the goal_delete payload.
func (e Event) GoalDelete() (GoalDelete, error) {
	var v GoalDelete
	return v, e.decode(KindGoalDelete, &v)
}

func (e Event) decode(kind Kind, v any) error {
	if e.Kind != kind {
		return fmt.Errorf("%w: %s is not %s", common.ErrInvalidEvent, e.Kind, kind)
	}
	if err := json.Unmarshal(e.Details, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidEvent, err)
	}
	return nil
}

// Validate checks that the event has an id, a known kind, and a payload that
// decodes for that kind.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", common.ErrInvalidEvent)
	}
	switch e.Kind {
	case KindTimerStart:
		return nil
	case KindTimerStop:
		v, err := e.TimerStop()
		if err != nil {
			return err
		}
		if v.StartEventID == "" {
			return fmt.Errorf("%w: timer_stop missing start_event_id", common.ErrInvalidEvent)
		}
		return nil
	case KindManualEntry:
		_, err := e.ManualEntry()
		return err
	case KindCorrection:
		v, err := e.Correction()
		if err != nil {
			return err
		}
		if v.TargetID == "" {
			return fmt.Errorf("%w: correction missing target_id", common.ErrInvalidEvent)
		}
		if v.Action != CorrectionDelete && v.Action != CorrectionReplace {
			return fmt.Errorf("%w: correction action %q", common.ErrInvalidEvent, v.Action)
		}
		return nil
	case KindGoalSet:
		v, err := e.GoalSet()
		if err != nil {
			return err
		}
		switch v.Period {
		case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
			return nil
		}
		return fmt.Errorf("%w: goal period %q", common.ErrInvalidEvent, v.Period)
	case KindGoalDelete:
		v, err := e.GoalDelete()
		if err != nil {
			return err
		}
		if v.GoalID == "" {
			return fmt.Errorf("%w: goal_delete missing goal_id", common.ErrInvalidEvent)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", common.ErrUnknownEventType, e.Kind)
}

// Marshal serializes an event to the plaintext bytes that get sealed.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal parses and validates event bytes. It fails on unknown kinds and
// malformed payloads so that foreign or corrupt plaintext is skipped, not
// folded.
func Unmarshal(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", common.ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
