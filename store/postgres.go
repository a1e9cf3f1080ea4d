package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres stores BSON documents in a PostgreSQL table. The schema is
// migrated on open.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string, timeout time.Duration) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store: empty postgres connection string")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres config: %w", err)
	}
	cfg.ConnConfig.ConnectTimeout = timeout

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("postgres connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("postgres ping", err)
	}

	if err := migrateUp(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

func migrateUp(pool *pgxpool.Pool) error {
	driver, err := pgxmigrate.WithInstance(stdlib.OpenDBFromPool(pool), &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("store: migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("store: migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

func (p *Postgres) Available() bool { return true }

func (p *Postgres) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	enc, err := encode(doc)
	if err != nil {
		return "", err
	}

	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		field, err := ensureCollection(ctx, tx, collection)
		if err != nil {
			return err
		}

		const insertSQL = `
			INSERT INTO documents (id, collection, unique_key, body)
			VALUES ($1, $2, $3, $4)
		`
		_, err = tx.Exec(ctx, insertSQL, enc.id.Hex(), collection, enc.uniqueKey(field), enc.body)
		return err
	})
	if err != nil {
		return "", pgError("insert into "+collection, err)
	}

	return enc.id.Hex(), nil
}

func ensureCollection(ctx context.Context, tx pgx.Tx, collection string) (string, error) {
	const upsertSQL = `INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := tx.Exec(ctx, upsertSQL, collection); err != nil {
		return "", err
	}

	var field string
	err := tx.QueryRow(ctx, `SELECT unique_field FROM collections WHERE name = $1`, collection).Scan(&field)
	return field, err
}

func (p *Postgres) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	var field string
	err = p.pool.QueryRow(ctx, `SELECT unique_field FROM collections WHERE name = $1`, collection).Scan(&field)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return pgError("find in "+collection, err)
	}

	query := `SELECT body FROM documents WHERE collection = $1`
	args := []any{collection}
	if id, ok := objectIDHex(f["_id"]); ok {
		args = append(args, id)
		query += fmt.Sprintf(" AND id = $%d", len(args))
	}
	if key, ok := f[field].(string); ok && field != "" {
		args = append(args, key)
		query += fmt.Sprintf(" AND unique_key = $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return pgError("find in "+collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return pgError("find in "+collection, err)
		}
		ok, err := matches(body, f)
		if err != nil {
			return err
		}
		if ok {
			return decode(body, out)
		}
	}
	if err := rows.Err(); err != nil {
		return pgError("find in "+collection, err)
	}
	return ErrNotFound
}

func (p *Postgres) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, pgError("list collections", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, pgError("list collections", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (p *Postgres) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		current, err := ensureCollection(ctx, tx, collection)
		if err != nil {
			return err
		}
		if current == field {
			return nil
		}
		if current != "" {
			return fmt.Errorf("store: %s already unique on %q", collection, current)
		}

		rows, err := tx.Query(ctx, `SELECT body FROM documents WHERE collection = $1`, collection)
		if err != nil {
			return err
		}
		bodies, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
		if err != nil {
			return err
		}
		for _, body := range bodies {
			enc, err := encodedFromBody(body)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE documents SET unique_key = $1 WHERE id = $2`,
				enc.uniqueKey(field), enc.id.Hex()); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `UPDATE collections SET unique_field = $1 WHERE name = $2`, field, collection)
		return err
	})
	if err != nil {
		return pgError("ensure index "+collection+"."+field, err)
	}
	return nil
}

func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func pgError(op string, err error) error {
	var (
		pgErr   *pgconn.PgError
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return fmt.Errorf("store: %s: %w", op, ErrDuplicate)
	case errors.As(err, &connErr), errors.As(err, &netErr), pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded):
		return unavailable(op, err)
	default:
		return fmt.Errorf("store: %s: %w", op, err)
	}
}
