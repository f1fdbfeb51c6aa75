package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"stuff-lending/config"
	"stuff-lending/lending"
	"stuff-lending/lending/gormstore"
)

func openStore(cfg *config.Config) (lending.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return lending.NewMemoryStore(), nil
	case "sqlite":
		return lending.NewDatabase(cfg.Store.Path)
	case "gorm-sqlite", "postgres", "mysql":
		return gormstore.Open(cfg.Store.Driver, cfg.Store.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// OpenManager wires a Manager from the environment. Callers must Close it.
func OpenManager(ctx context.Context) (*lending.Manager, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	strategy, err := lending.StrategyByName(cfg.CostStrategy)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	mgr, err := lending.NewManager(ctx, store, lending.Options{
		StartDay: cfg.StartDay,
		Strategy: strategy,
		Logger:   cfg.NewLogger(),
	})
	if err != nil {
		if c, ok := store.(io.Closer); ok {
			c.Close()
		}
		return nil, nil, err
	}

	if cfg.Seed {
		if _, err := mgr.Seed(ctx); err != nil {
			mgr.Close()
			return nil, nil, fmt.Errorf("failed to seed sample data: %w", err)
		}
	}
	return mgr, cfg, nil
}

// withManager runs fn against a freshly opened Manager and closes it after.
func withManager(ctx context.Context, fn func(mgr *lending.Manager) error) error {
	mgr, _, err := OpenManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()
	return fn(mgr)
}

// readSecret reads a PIN without echo when src is a terminal, and falls back
// to the next line of in otherwise so scripted input keeps working.
func readSecret(src io.Reader, in *bufio.Scanner, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	if !in.Scan() {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(in.Text()), nil
}

func parseDay(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", s)
	}
	return d, nil
}
