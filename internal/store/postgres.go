package store

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/catalog"
)

// PostgresStore keeps projections in a single table keyed on
// (type, code, store). Write ordering relies on the modified_at guard in the
// upsert plus Postgres row-level locking, so concurrent writers to one id
// cannot interleave.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, id catalog.ProjectionID) (catalog.Projection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT type, code, store, payload, deleted, modified_at
		 FROM catalog_projections
		 WHERE type = $1 AND code = $2 AND store = $3`,
		id.Type, id.Code, id.Store,
	)

	p, err := scanProjection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Projection{}, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) GetByCode(ctx context.Context, t catalog.Type, code string) ([]catalog.Projection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, code, store, payload, deleted, modified_at
		 FROM catalog_projections
		 WHERE type = $1 AND code = $2
		 ORDER BY store ASC`,
		t, code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Projection
	for rows.Next() {
		p, err := scanProjection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Upsert(ctx context.Context, p catalog.Projection) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_projections (type, code, store, payload, deleted, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (type, code, store) DO UPDATE
		 SET payload = EXCLUDED.payload, deleted = EXCLUDED.deleted, modified_at = EXCLUDED.modified_at
		 WHERE catalog_projections.modified_at <= EXCLUDED.modified_at`,
		p.ID.Type, p.ID.Code, p.ID.Store, []byte(p.Payload), p.Deleted, p.ModifiedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.WithFields(log.Fields{
			"projection": p.ID.String(),
			"incoming":   p.ModifiedAt,
		}).Warn("skipping stale projection write")
	}
	return nil
}

func (s *PostgresStore) Tombstone(ctx context.Context, id catalog.ProjectionID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE catalog_projections
		 SET deleted = TRUE, modified_at = $4
		 WHERE type = $1 AND code = $2 AND store = $3 AND deleted = FALSE`,
		id.Type, id.Code, id.Store, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// Either already tombstoned (no-op) or missing.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) FindAll(ctx context.Context, f Filter) iter.Seq2[catalog.Projection, error] {
	return func(yield func(catalog.Projection, error) bool) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT type, code, store, payload, deleted, modified_at
			 FROM catalog_projections
			 WHERE ($1 = '' OR type = $1) AND ($2 = '' OR store = $2)
			 ORDER BY type, code, store`,
			string(f.Type), f.Store,
		)
		if err != nil {
			yield(catalog.Projection{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProjection(rows)
			if !yield(p, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(catalog.Projection{}, err)
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProjection(row rowScanner) (catalog.Projection, error) {
	var p catalog.Projection
	var payload []byte
	if err := row.Scan(&p.ID.Type, &p.ID.Code, &p.ID.Store, &payload, &p.Deleted, &p.ModifiedAt); err != nil {
		return catalog.Projection{}, err
	}
	p.Payload = payload
	return p, nil
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
