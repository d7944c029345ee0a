package cli

import (
	"context"
	"fmt"

	"github.com/skylog-app/skylog/internal/client/keyring"
	"github.com/skylog-app/skylog/internal/client/sync"
)

func (a *App) Sync(ctx context.Context) error {
	records, err := a.engine.SyncAll(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "sync failed: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "synced, %d event(s) total\n", len(records))
	return nil
}

func (a *App) Key(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: key export | key import")
		return nil
	}

	switch args[0] {
	case "export":
		id := a.engine.Identity()
		fmt.Fprintf(a.out, "address: %s\n", id.Address())
		fmt.Fprintln(a.out, "secret key (anyone holding this reads and writes your log):")
		fmt.Fprintln(a.out, id.ExportSecret())
		return nil

	case "import":
		secret, err := GetSecret(a.out)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return err
		}
		return a.importSecret(ctx, secret)
	}

	fmt.Fprintln(a.out, "Unknown key subcommand:", args[0])
	return nil
}

func (a *App) importSecret(ctx context.Context, secret string) error {
	decisionNeeded, err := a.engine.ImportIdentity(ctx, secret)
	if err != nil {
		fmt.Fprintf(a.out, "import failed: %v\n", err)
		return err
	}
	if decisionNeeded {
		fmt.Fprintln(a.out, "this device has local events not yet uploaded.")
		fmt.Fprintln(a.out, "  merge   - move them into the imported identity's log")
		fmt.Fprintln(a.out, "  discard - drop them and take the imported log as-is")
		return nil
	}
	if err := a.saveIdentity(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "identity imported: %s\n", a.engine.Identity().Address())
	return nil
}

// saveIdentity persists the engine's current identity so a restart comes
// back as the identity the user is on now, not the one the device started
// with.
func (a *App) saveIdentity(ctx context.Context) error {
	if err := keyring.Save(ctx, a.keys, a.engine.Identity()); err != nil {
		fmt.Fprintf(a.out, "could not save the imported key (%v); it will be lost on restart\n", err)
		return err
	}
	return nil
}

func (a *App) Merge(ctx context.Context) error {
	return a.resolve(ctx, true)
}

func (a *App) Discard(ctx context.Context) error {
	return a.resolve(ctx, false)
}

func (a *App) resolve(ctx context.Context, merge bool) error {
	decision := sync.DecisionDiscard
	if merge {
		decision = sync.DecisionMerge
	}
	before := a.engine.Identity().Address()
	records, err := a.engine.ResolveMerge(ctx, decision)

	// the decision commits before the follow-up sync, so the identity may
	// have switched even when err is set; persist it either way
	if a.engine.Identity().Address() != before {
		if serr := a.saveIdentity(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "now on %s, %d event(s)\n", a.engine.Identity().Address(), len(records))
	return nil
}
