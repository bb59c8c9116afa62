package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/nacionrock/album-votes/store"
)

const APP = "album-votes"

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"

const (
	CSV      = "csv"
	GSHEETS  = "sheets"
	SQLITE   = store.SQLite
	POSTGRES = store.Postgres
	REDIS    = "redis"
)

type Options struct {
	Debug bool
}

// command holds the data source options common to all the commands.
type command struct {
	store       string
	file        string
	url         string
	worksheet   string
	mode        string
	credentials string
	tokens      string
	dsn         string
	redis       string
	key         string
	workdir     string
	debug       bool
}

func newCommand() command {
	return command{
		store:       CSV,
		file:        DEFAULT_FILE,
		worksheet:   store.DefaultWorksheet,
		mode:        string(store.Update),
		credentials: DEFAULT_CREDENTIALS,
		redis:       "redis://localhost:6379/0",
		key:         store.DefaultRedisKey,
		workdir:     DEFAULT_WORKDIR,
	}
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.store, "store", c.store, "Data source for the album table (csv, sheets, sqlite, postgres or redis)")
	flagset.StringVar(&c.file, "file", c.file, "CSV file for the 'csv' store")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL or ID for the 'sheets' store")
	flagset.StringVar(&c.worksheet, "worksheet", c.worksheet, "Worksheet name for the 'sheets' store")
	flagset.StringVar(&c.mode, "mode", c.mode, "Worksheet write mode for the 'sheets' store (update or replace)")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Google credentials file (OAuth2 client or service account) for the 'sheets' store")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "OAuth2 tokens file. Defaults to <workdir>/.google/<credentials>.sheets")
	flagset.StringVar(&c.dsn, "dsn", c.dsn, "Database DSN for the 'sqlite' and 'postgres' stores")
	flagset.StringVar(&c.redis, "redis", c.redis, "Redis URL for the 'redis' store")
	flagset.StringVar(&c.key, "key", c.key, "Redis key for the 'redis' store")
	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (tokens, database, etc)")

	return flagset
}

// open returns the configured store and a function that releases it.
func (c *command) open(ctx context.Context) (store.Store, func(), error) {
	nop := func() {}

	kind := strings.ToLower(strings.TrimSpace(c.store))

	switch kind {
	case CSV:
		if strings.TrimSpace(c.file) == "" {
			return nil, nop, fmt.Errorf("--file is a required option for the 'csv' store")
		}

		return store.NewFile(c.file), nop, nil

	case GSHEETS:
		s, err := c.sheets(ctx)
		if err != nil {
			return nil, nop, err
		}

		return s, nop, nil

	case SQLITE, POSTGRES:
		dsn := c.dsn
		if dsn == "" && kind == SQLITE {
			dsn = filepath.Join(c.workdir, "album-votes.db")
			if err := os.MkdirAll(c.workdir, 0770); err != nil {
				return nil, nop, err
			}
		}

		if strings.TrimSpace(dsn) == "" {
			return nil, nop, fmt.Errorf("--dsn is a required option for the '%v' store", kind)
		}

		db, err := store.OpenSQL(ctx, kind, dsn)
		if err != nil {
			return nil, nop, err
		}

		return db, func() { db.Close() }, nil

	case REDIS:
		r, err := store.NewRedis(ctx, c.redis, c.key)
		if err != nil {
			return nil, nop, err
		}

		return r, func() { r.Close() }, nil

	default:
		return nil, nop, fmt.Errorf("invalid store '%v' - expected csv, sheets, sqlite, postgres or redis", c.store)
	}
}

func (c *command) sheets(ctx context.Context) (*store.Sheets, error) {
	if strings.TrimSpace(c.credentials) == "" {
		return nil, fmt.Errorf("--credentials is a required option for the 'sheets' store")
	}

	if strings.TrimSpace(c.url) == "" {
		return nil, fmt.Errorf("--url is a required option for the 'sheets' store")
	}

	tokens := c.tokens
	if tokens == "" {
		_, file := filepath.Split(c.credentials)
		name := strings.TrimSuffix(file, filepath.Ext(file))
		tokens = filepath.Join(c.workdir, ".google", fmt.Sprintf("%s.sheets", name))
	}

	client, err := authorize(ctx, c.credentials, tokens, SHEETS)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return store.NewSheets(google, c.url, c.worksheet, store.WriteMode(c.mode), c.debug)
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-15s %s\n", f.Name, f.Usage)
	})

	fmt.Println()
	fmt.Println("  Global options:")
	flag.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-15s %s\n", f.Name, f.Usage)
	})
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}

// arguments extracts the context and options passed to Execute by main().
func arguments(args ...any) (context.Context, Options) {
	ctx := context.Background()
	options := Options{}

	for _, arg := range args {
		switch v := arg.(type) {
		case context.Context:
			ctx = v
		case *Options:
			options = *v
		}
	}

	return ctx, options
}
