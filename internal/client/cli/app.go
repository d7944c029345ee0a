// Package cli is the interactive client: a small REPL over the sync engine
// and the local cache. All times shown to the user are local; all times
// stored in events are unix seconds.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/skylog-app/skylog/internal/client/cache"
	"github.com/skylog-app/skylog/internal/client/config"
	"github.com/skylog-app/skylog/internal/client/keyring"
	"github.com/skylog-app/skylog/internal/client/store"
	"github.com/skylog-app/skylog/internal/client/sync"
	"github.com/skylog-app/skylog/internal/kv"
	"github.com/skylog-app/skylog/internal/logging"
)

type App struct {
	config *config.Config
	engine *sync.Engine
	cache  *cache.Cache
	keys   kv.Store
	out    io.Writer
	now    func() time.Time
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	db, err := kv.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening client database: %w", err)
	}
	kvStore := kv.NewSQLiteStore(db)

	id, err := keyring.LoadOrGenerate(ctx, kvStore)
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}

	// warnings only; the REPL is the user surface
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	c := cache.New(kvStore)
	sc := store.NewHTTPClient(cfg.StoreBaseURL, cfg.RequestTimeout)

	return &App{
		config: cfg,
		engine: sync.New(id, sc, c, log),
		cache:  c,
		keys:   kvStore,
		out:    os.Stdout,
		now:    time.Now,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "skylog (type 'help' for commands)")
	runREPL(ctx, a, a.statusLine, bufio.NewScanner(os.Stdin))
}

// statusLine is the REPL prompt: a short address prefix so the user can tell
// identities apart after an import.
func (a *App) statusLine() string {
	addr := a.engine.Identity().Address()
	if len(addr) > 8 {
		addr = addr[:8]
	}
	if a.engine.MergeStatus() == sync.AwaitingMergeDecision {
		return addr + " [merge?]"
	}
	return addr
}
