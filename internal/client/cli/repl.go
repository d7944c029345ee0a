package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Sessions(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Goals(ctx context.Context) error
	Goal(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Key(ctx context.Context, args []string) error
	Merge(ctx context.Context) error
	Discard(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Command errors are ignored here; handlers report their own errors. This
// keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("skylog %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: start, stop, status, add, sessions, delete, goals, goal, sync, key, merge, discard, exit")
			printlnFn("  add <start> <end>          record a past session (2006-01-02T15:04)")
			printlnFn("  delete <session-id>        remove a session")
			printlnFn("  edit <session-id> <start> <end>")
			printlnFn("  goal set <minutes> <day|week|month|year> | goal delete <id>")
			printlnFn("  key export | key import    move this identity between devices")

		case "start":
			_ = a.Start(ctx)

		case "stop":
			_ = a.Stop(ctx)

		case "st", "status":
			_ = a.Status(ctx)

		case "add":
			_ = a.Add(ctx, args)

		case "s", "sessions":
			_ = a.Sessions(ctx)

		case "delete", "del":
			_ = a.Delete(ctx, args)

		case "edit":
			_ = a.Edit(ctx, args)

		case "goals":
			_ = a.Goals(ctx)

		case "goal":
			_ = a.Goal(ctx, args)

		case "sync":
			_ = a.Sync(ctx)

		case "key":
			_ = a.Key(ctx, args)

		case "merge":
			_ = a.Merge(ctx)

		case "discard":
			_ = a.Discard(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
