package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gopkg.in/guregu/null.v3"
	_ "modernc.org/sqlite"

	"github.com/nacionrock/album-votes/poll"
)

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS album_votes (
    position    INTEGER PRIMARY KEY,
    artista     TEXT NOT NULL DEFAULT '',
    album       TEXT NOT NULL DEFAULT '',
    url_portada TEXT,
    votos       INTEGER NOT NULL DEFAULT 0 CHECK (votos >= 0)
);
`

// SQL keeps the album table in a database table, one row per entry ordered by
// position. Save replaces every row inside a single transaction.
type SQL struct {
	db          *sqlx.DB
	placeholder sq.PlaceholderFormat
}

type record struct {
	Position int         `db:"position"`
	Artist   string      `db:"artista"`
	Album    string      `db:"album"`
	CoverURL null.String `db:"url_portada"`
	Votes    int64       `db:"votos"`
}

// OpenSQL connects to a sqlite or postgres database and creates the album
// table if it does not exist.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	var placeholder sq.PlaceholderFormat

	switch driver {
	case SQLite:
		placeholder = sq.Question

	case Postgres:
		placeholder = sq.Dollar

	default:
		return nil, fmt.Errorf("unsupported database driver '%v'", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed (%w)", err)
	}

	if driver == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed (%w)", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema (%w)", err)
	}

	return &SQL{
		db:          db,
		placeholder: placeholder,
	}, nil
}

func (s *SQL) Load(ctx context.Context) (poll.Table, error) {
	query, args, err := sq.Select("position", "artista", "album", "url_portada", "votos").
		From("album_votes").
		OrderBy("position").
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return poll.Empty(), loadError("invalid query", err)
	}

	records := []record{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return poll.Empty(), loadError("unable to retrieve album table", err)
	}

	rows := [][]any{
		{poll.ARTIST, poll.ALBUM, poll.COVER, poll.VOTES},
	}

	for _, r := range records {
		rows = append(rows, []any{r.Artist, r.Album, r.CoverURL.String, r.Votes})
	}

	table, err := poll.MakeTable(rows)
	if err != nil {
		return poll.Empty(), loadError("error creating table", err)
	}

	return table, nil
}

func (s *SQL) Save(ctx context.Context, table poll.Table) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return saveError("failed to begin transaction", err)
	}

	defer tx.Rollback()

	query, args, err := sq.Delete("album_votes").PlaceholderFormat(s.placeholder).ToSql()
	if err != nil {
		return saveError("invalid query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return saveError("failed to delete album rows", err)
	}

	if !table.IsEmpty() {
		insert := sq.Insert("album_votes").
			Columns("position", "artista", "album", "url_portada", "votos").
			PlaceholderFormat(s.placeholder)

		for i, e := range table.Entries {
			insert = insert.Values(i, e.Artist, e.Album, null.NewString(e.CoverURL, e.CoverURL != ""), e.Votes)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return saveError("invalid query", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return saveError("failed to insert album rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return saveError("failed to commit transaction", err)
	}

	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) String() string {
	return fmt.Sprintf("sql:%s", s.db.DriverName())
}
