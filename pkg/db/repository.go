package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/morezero/course-recommender/pkg/resultset"
)

const repoLogPrefix = "db:repository"

// Querier is the part of *pgxpool.Pool the repository uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository calls the course catalog's stored functions.
type Repository struct {
	q Querier
}

// NewRepository creates a new Repository on a pool or connection.
func NewRepository(q Querier) *Repository {
	return &Repository{q: q}
}

// Call runs the stored function behind operation and returns its rows as records.
// Bad or missing parameters are reported as *ParamError before the database is touched.
func (r *Repository) Call(ctx context.Context, operation string, params map[string]string) (resultset.ResultSet, error) {
	proc, err := LookupProcedure(operation)
	if err != nil {
		return nil, err
	}
	args, err := proc.Args(params)
	if err != nil {
		return nil, err
	}

	slog.Debug(fmt.Sprintf("%s - %s args=%v", repoLogPrefix, proc.Function, args))
	rows, err := r.q.Query(ctx, proc.SQL(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s - %s failed: %w", repoLogPrefix, proc.Function, err)
	}
	rs, err := CollectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s - %s: %w", repoLogPrefix, proc.Function, err)
	}
	return rs, nil
}

// CollectRecords drains rows into records keyed by column name, in column order.
func CollectRecords(rows pgx.Rows) (resultset.ResultSet, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := resultset.ResultSet{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		var rec resultset.Record
		for i, fd := range fields {
			v, err := columnValue(values[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", fd.Name, err)
			}
			if err := rec.Set(fd.Name, v); err != nil {
				return nil, fmt.Errorf("column %s: %w", fd.Name, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// columnValue converts pgx values that Record.Set does not understand. Dates become YYYY-MM-DD.
func columnValue(v any) (any, error) {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil, nil
		}
		f, err := x.Float64Value()
		if err != nil {
			return nil, err
		}
		return f.Float64, nil
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16]), nil
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 && x.Location() == time.UTC {
			return x.Format(time.DateOnly), nil
		}
	}
	return v, nil
}
