// Package rebuild derives the user-visible view — sessions, goals, active
// timer — from an ordered event list. Every function here is a pure fold:
// same input, same output, no hidden state. The input order must be the
// store's sequence order, which guarantees a correction sorts after the
// event it references.
package rebuild

import (
	"sort"

	"github.com/skylog-app/skylog/internal/event"
)

// Source tags how a session was recorded.
type Source string

const (
	SourceTimer  Source = "timer"
	SourceManual Source = "manual"
)

// Session is a derived record, keyed by the originating timer_start or
// manual_entry id. Never persisted; rebuilt fresh on every pass.
type Session struct {
	ID      string
	Start   int64
	End     int64
	Minutes int
	Source  Source
}

// Goal is a derived record, keyed by the goal_set id.
type Goal struct {
	ID            string
	TargetMinutes int
	Period        event.Period
	CreatedAt     int64
}

// RoundUpMinutes converts a duration in seconds to whole minutes, rounding
// up. Any positive duration counts as at least 1 minute; non-positive maps
// to 0.
func RoundUpMinutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int((seconds + 59) / 60)
}

// Sessions folds events into realized sessions, applying corrections,
// sorted by start time descending.
func Sessions(events []event.Event) []Session {
	pending := make(map[string]event.Event)
	realized := make(map[string]*Session)
	deleted := make(map[string]bool)

	for _, e := range events {
		switch e.Kind {
		case event.KindTimerStart:
			pending[e.ID] = e

		case event.KindTimerStop:
			ts, err := e.TimerStop()
			if err != nil {
				continue
			}
			start, ok := pending[ts.StartEventID]
			if !ok {
				// unmatched stop, nothing to close
				continue
			}
			realized[start.ID] = &Session{
				ID:      start.ID,
				Start:   start.CreatedAt,
				End:     e.CreatedAt,
				Minutes: RoundUpMinutes(e.CreatedAt - start.CreatedAt),
				Source:  SourceTimer,
			}
			delete(pending, start.ID)

		case event.KindManualEntry:
			me, err := e.ManualEntry()
			if err != nil {
				continue
			}
			realized[e.ID] = &Session{
				ID:      e.ID,
				Start:   me.Start,
				End:     me.End,
				Minutes: RoundUpMinutes(me.End - me.Start),
				Source:  SourceManual,
			}

		case event.KindCorrection:
			c, err := e.Correction()
			if err != nil {
				continue
			}
			switch c.Action {
			case event.CorrectionDelete:
				deleted[c.TargetID] = true
				delete(realized, c.TargetID)
				delete(pending, c.TargetID)
			case event.CorrectionReplace:
				// replace of a non-existent session is a no-op
				if s, ok := realized[c.TargetID]; ok {
					s.Start = c.Start
					s.End = c.End
					s.Minutes = RoundUpMinutes(c.End - c.Start)
				}
			}

		case event.KindGoalSet, event.KindGoalDelete:
			// not session-shaped
		}
	}

	out := make([]Session, 0, len(realized))
	for id, s := range realized {
		if deleted[id] {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start > out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Goals folds goal_set/goal_delete pairs into the current goal list,
// sorted by creation time descending.
func Goals(events []event.Event) []Goal {
	realized := make(map[string]*Goal)

	for _, e := range events {
		switch e.Kind {
		case event.KindGoalSet:
			g, err := e.GoalSet()
			if err != nil {
				continue
			}
			realized[e.ID] = &Goal{
				ID:            e.ID,
				TargetMinutes: g.TargetMinutes,
				Period:        g.Period,
				CreatedAt:     e.CreatedAt,
			}

		case event.KindGoalDelete:
			gd, err := e.GoalDelete()
			if err != nil {
				continue
			}
			delete(realized, gd.GoalID)

		case event.KindTimerStart, event.KindTimerStop, event.KindManualEntry, event.KindCorrection:
			// not goal-shaped
		}
	}

	out := make([]Goal, 0, len(realized))
	for _, g := range realized {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveTimerStart returns the most recent timer_start with no matching
// timer_stop and no deleting correction, or false when no timer is running.
func ActiveTimerStart(events []event.Event) (event.Event, bool) {
	stopped := make(map[string]bool)
	deleted := make(map[string]bool)
	var starts []event.Event

	for _, e := range events {
		switch e.Kind {
		case event.KindTimerStart:
			starts = append(starts, e)

		case event.KindTimerStop:
			ts, err := e.TimerStop()
			if err != nil {
				continue
			}
			stopped[ts.StartEventID] = true

		case event.KindCorrection:
			c, err := e.Correction()
			if err != nil {
				continue
			}
			if c.Action == event.CorrectionDelete {
				deleted[c.TargetID] = true
			}

		case event.KindManualEntry, event.KindGoalSet, event.KindGoalDelete:
			// cannot be an open timer
		}
	}

	var best event.Event
	found := false
	for _, s := range starts {
		if stopped[s.ID] || deleted[s.ID] {
			continue
		}
		if !found || s.CreatedAt > best.CreatedAt {
			best = s
			found = true
		}
	}
	return best, found
}
