package hr

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrrecords/internal/domain/records"
	"hrrecords/internal/platform/sqlbuild"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Retrieve(ctx context.Context, kind records.Kind, employeeID string) ([]*records.Record, error) {
	stmt, err := sqlbuild.SelectByEmployee(sqlbuild.Postgres, kind, employeeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := records.FieldNames(kind)
	out := []*records.Record{}
	for rows.Next() {
		values := make([]string, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, records.FromRow(kind, names, values))
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, rec *records.Record) error {
	stmt, err := sqlbuild.Insert(sqlbuild.Postgres, rec)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, stmt.SQL, stmt.Args...)
	return err
}

func (s *Store) Update(ctx context.Context, rec *records.Record) (int64, error) {
	stmt, err := sqlbuild.Update(sqlbuild.Postgres, rec)
	if err != nil {
		return 0, err
	}
	tag, err := s.DB.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
