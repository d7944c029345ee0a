package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/rebuild"
)

const timeLayout = "2006-01-02T15:04"

// record queues an event and tries to upload it right away. An unreachable
// store is not a failure: the event stays pending and goes out on the next
// sync.
func (a *App) record(ctx context.Context, ev event.Event) error {
	if err := a.engine.RecordLocal(ctx, ev); err != nil {
		pending, perr := a.cache.PendingEvents(ctx, a.engine.Identity().Address())
		if perr == nil {
			for _, p := range pending {
				if p.ID == ev.ID {
					fmt.Fprintf(a.out, "store unreachable (%v); saved locally, will upload on next sync\n", err)
					return nil
				}
			}
		}
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	return nil
}

func (a *App) Start(ctx context.Context) error {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	if running, ok := rebuild.ActiveTimerStart(events); ok {
		fmt.Fprintf(a.out, "timer already running since %s\n",
			time.Unix(running.CreatedAt, 0).Format(timeLayout))
		return nil
	}

	ev := event.NewTimerStart(a.now().Unix())
	if err := a.record(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "timer started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	running, ok := rebuild.ActiveTimerStart(events)
	if !ok {
		fmt.Fprintln(a.out, "no timer running")
		return nil
	}

	now := a.now().Unix()
	ev := event.NewTimerStop(running.ID, now)
	if err := a.record(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "timer stopped: %d min outside\n", rebuild.RoundUpMinutes(now-running.CreatedAt))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	events, err := a.engine.LocalEvents(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	now := a.now()
	if running, ok := rebuild.ActiveTimerStart(events); ok {
		fmt.Fprintf(a.out, "timer running since %s (%d min)\n",
			time.Unix(running.CreatedAt, 0).Format(timeLayout),
			rebuild.RoundUpMinutes(now.Unix()-running.CreatedAt))
	} else {
		fmt.Fprintln(a.out, "no timer running")
	}

	sessions := rebuild.Sessions(events)
	fmt.Fprintf(a.out, "today: %d min, this week: %d min\n",
		minutesSince(sessions, periodStart(now, event.PeriodDay)),
		minutesSince(sessions, periodStart(now, event.PeriodWeek)))

	addr := a.engine.Identity().Address()
	pending, err := a.cache.PendingEvents(ctx, addr)
	if err != nil {
		return err
	}
	if n := len(pending); n > 0 {
		fmt.Fprintf(a.out, "%d event(s) waiting to upload\n", n)
	}
	if at, err := a.cache.LastSyncAt(ctx, addr); err == nil && at > 0 {
		fmt.Fprintf(a.out, "last sync %s\n", time.Unix(at, 0).Format(timeLayout))
	}
	return nil
}
