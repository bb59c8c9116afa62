// Package store implements the backing media for the album table. Every store
// loads and saves the whole table: there is no per-row write.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nacionrock/album-votes/poll"
)

// Store is the capability set shared by all the backing media.
//
// Load returns the cleansed table. On failure it returns an empty table with
// the canonical header and an error wrapping ErrLoad.
//
// Save overwrites the medium with the header and every entry of the table. On
// failure it returns an error wrapping ErrSave.
type Store interface {
	Load(ctx context.Context) (poll.Table, error)
	Save(ctx context.Context, table poll.Table) error
}

var (
	ErrLoad = errors.New("load failed")
	ErrSave = errors.New("save failed")
)

func loadError(msg string, err error) error {
	return fmt.Errorf("%w: %s (%w)", ErrLoad, msg, err)
}

func saveError(msg string, err error) error {
	return fmt.Errorf("%w: %s (%w)", ErrSave, msg, err)
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
