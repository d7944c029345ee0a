package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/rebuild"
)

// periodStart returns the unix second the current period began, in local
// time. Weeks start on Monday.
func periodStart(now time.Time, p event.Period) int64 {
	y, m, d := now.Date()
	switch p {
	case event.PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Unix()
	case event.PeriodWeek:
		midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset).Unix()
	case event.PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()).Unix()
	case event.PeriodYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, now.Location()).Unix()
	}
	return 0
}

// minutesSince sums session minutes for sessions starting at or after the
// boundary.
func minutesSince(sessions []rebuild.Session, boundary int64) int {
	total := 0
	for _, s := range sessions {
		if s.Start >= boundary {
			total += s.Minutes
		}
	}
	return total
}

func (a *App) Goals(ctx context.Context) error {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	goals := rebuild.Goals(events)
	if len(goals) == 0 {
		fmt.Fprintln(a.out, "no goals set")
		return nil
	}

	sessions := rebuild.Sessions(events)
	now := a.now()
	for _, g := range goals {
		done := minutesSince(sessions, periodStart(now, g.Period))
		fmt.Fprintf(a.out, "%d/%d min this %s  %s\n", done, g.TargetMinutes, g.Period, g.ID)
	}
	return nil
}

func (a *App) Goal(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: goal set <minutes> <day|week|month|year> | goal delete <id>")
		return nil
	}

	switch args[0] {
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(a.out, "Usage: goal set <minutes> <day|week|month|year>")
			return nil
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			fmt.Fprintln(a.out, "minutes must be a positive number")
			return nil
		}

		ev := event.NewGoalSet(minutes, event.Period(args[2]), a.now().Unix())
		if err := ev.Validate(); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return nil
		}
		if err := a.record(ctx, ev); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "goal set: %d min per %s\n", minutes, args[2])
		return nil

	case "delete", "del":
		if len(args) != 2 {
			fmt.Fprintln(a.out, "Usage: goal delete <id>")
			return nil
		}
		ev := event.NewGoalDelete(args[1], a.now().Unix())
		if err := a.record(ctx, ev); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "goal deleted")
		return nil
	}

	fmt.Fprintln(a.out, "Unknown goal subcommand:", args[0])
	return nil
}
