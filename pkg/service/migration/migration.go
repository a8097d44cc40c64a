// Package migration runs one-off data migrations over the Marsha buckets.
package migration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("migration")

// ErrUnknownMigration is returned when a migration is requested by a name
// that was never registered.
var ErrUnknownMigration = errors.New("unknown migration")

// Migration is a named, idempotent operation. Run returns how many items it
// processed.
type Migration struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Runner holds the registered migrations.
type Runner struct {
	migrations map[string]Migration
}

func NewRunner(migrations ...Migration) *Runner {
	r := &Runner{migrations: map[string]Migration{}}
	for _, m := range migrations {
		r.migrations[m.Name] = m
	}
	return r
}

// Names returns the registered migration names in execution order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.migrations))
	for name := range r.migrations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes the named migrations, or all of them when no name is given,
// in name order. It stops at the first failing migration.
func (r *Runner) Run(ctx context.Context, names ...string) (map[string]int, error) {
	if len(names) == 0 {
		names = r.Names()
	} else {
		names = slices.Clone(names)
		slices.Sort(names)
		names = slices.Compact(names)
	}
	for _, name := range names {
		if _, ok := r.migrations[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMigration, name)
		}
	}

	processed := make(map[string]int, len(names))
	for _, name := range names {
		start := time.Now()
		log.Infow("running migration", "name", name)
		n, err := r.migrations[name].Run(ctx)
		processed[name] = n
		if err != nil {
			return processed, fmt.Errorf("running migration %s: %w", name, err)
		}
		log.Infow("migration done", "name", name, "processed", n, "elapsed", time.Since(start).String())
	}
	return processed, nil
}

// ParseNames splits a comma separated list of migration names.
func ParseNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
