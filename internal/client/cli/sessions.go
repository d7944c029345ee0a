package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/rebuild"
)

func parseTimeArg(s string) (int64, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("bad time %q, want %s", s, timeLayout)
	}
	return t.Unix(), nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: add <start> <end>   (format 2006-01-02T15:04)")
		return nil
	}
	start, err := parseTimeArg(args[0])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return nil
	}
	end, err := parseTimeArg(args[1])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return nil
	}
	if end <= start {
		fmt.Fprintln(a.out, "end must be after start")
		return nil
	}

	ev := event.NewManualEntry(start, end, a.now().Unix())
	if err := a.record(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %d min\n", rebuild.RoundUpMinutes(end-start))
	return nil
}

func (a *App) Sessions(ctx context.Context) error {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	sessions := rebuild.Sessions(events)
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "no sessions yet")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(a.out, "%s  %s — %s  %4d min  (%s)  %s\n",
			time.Unix(s.Start, 0).Format("2006-01-02"),
			time.Unix(s.Start, 0).Format("15:04"),
			time.Unix(s.End, 0).Format("15:04"),
			s.Minutes, s.Source, s.ID)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <session-id>")
		return nil
	}
	if !a.sessionExists(ctx, args[0]) {
		fmt.Fprintf(a.out, "no session %s\n", args[0])
		return nil
	}

	ev := event.NewCorrectionDelete(args[0], a.now().Unix())
	if err := a.record(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "session deleted")
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(a.out, "Usage: edit <session-id> <start> <end>")
		return nil
	}
	start, err := parseTimeArg(args[1])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return nil
	}
	end, err := parseTimeArg(args[2])
	if err != nil {
		fmt.Fprintln(a.out, err)
		return nil
	}
	if end <= start {
		fmt.Fprintln(a.out, "end must be after start")
		return nil
	}
	if !a.sessionExists(ctx, args[0]) {
		fmt.Fprintf(a.out, "no session %s\n", args[0])
		return nil
	}

	ev := event.NewCorrectionReplace(args[0], start, end, a.now().Unix())
	if err := a.record(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "session updated: %d min\n", rebuild.RoundUpMinutes(end-start))
	return nil
}

func (a *App) sessionExists(ctx context.Context, id string) bool {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		return false
	}
	for _, s := range rebuild.Sessions(events) {
		if s.ID == id {
			return true
		}
	}
	return false
}
