// Package pg implements the user directory and media persistence on
// PostgreSQL through database/sql with the pgx driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/media"
)

var ErrAlreadyExists = errors.New("store: already exists")

type Store struct {
	db *sql.DB
}

var (
	_ auth.Directory = (*Store)(nil)
	_ media.Store    = (*Store)(nil)
)

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool (used by tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

var schema = []string{
	`create table if not exists users (
		username      text primary key,
		email         text not null unique,
		password_hash text not null default '',
		validated     boolean not null default false,
		roles         jsonb not null default '["USER"]',
		created_at    timestamptz not null default now()
	)`,
	`create table if not exists uploads (
		file_id      text primary key,
		username     text not null references users(username) on delete cascade,
		thumbnail_id text not null,
		img_path     text not null,
		created_at   timestamptz not null default now()
	)`,
	`create table if not exists gallery_items (
		gallery_id              text primary key,
		username                text not null references users(username) on delete cascade,
		file_ids                jsonb not null,
		mosaic_url              text not null,
		alternate_url           text not null,
		thumbnail_url           text not null,
		alternate_thumbnail_url text not null,
		toggle_on               boolean not null default true,
		created_at              timestamptz not null default now()
	)`,
	`create table if not exists messages (
		message_id   text primary key,
		username     text not null references users(username) on delete cascade,
		file_id      text not null,
		current_file text not null,
		enlargement  int not null,
		tile_size    int not null,
		progress     double precision not null default 0,
		status       text not null,
		expire_at    bigint not null,
		total_frames int not null,
		created_at   timestamptz not null default now()
	)`,
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
