package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"talent-match/internal/database"
)

// fakeDB serves canned rows and records every Exec so tests can assert on
// the exact SQL and arguments a repository sends.
type fakeDB struct {
	rows     *fakeRows
	queryErr error

	execSQL  []string
	execArgs [][]any
	execN    int64
	execErr  error
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	f.execSQL = append(f.execSQL, query)
	f.execArgs = append(f.execArgs, args)
	if f.execErr != nil {
		return 0, f.execErr
	}
	return f.execN, nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) database.Row {
	return errRow{}
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	return nil, errors.New("begin not supported in fake")
}

type errRow struct{}

func (errRow) Scan(...any) error { return errors.New("no row configured") }

// fakeRows replays literal row values through Scan. A scanErrs entry makes
// that row fail at Scan, simulating a driver-level decode fault.
type fakeRows struct {
	rows     [][]any
	scanErrs map[int]error
	idx      int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	i := r.idx - 1
	if err := r.scanErrs[i]; err != nil {
		return err
	}
	row := r.rows[i]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d columns, row has %d", len(dest), len(row))
	}
	for c, d := range dest {
		if err := assignColumn(d, row[c]); err != nil {
			return err
		}
	}
	return nil
}

func assignColumn(dest, v any) error {
	switch d := dest.(type) {
	case *uuid.UUID:
		*d = v.(uuid.UUID)
	case *string:
		*d = v.(string)
	case *int:
		*d = v.(int)
	case *int64:
		*d = v.(int64)
	case *float64:
		*d = v.(float64)
	case *bool:
		*d = v.(bool)
	case *[]byte:
		*d = v.([]byte)
	case **float64:
		if v == nil {
			*d = nil
		} else {
			f := v.(float64)
			*d = &f
		}
	case **int:
		if v == nil {
			*d = nil
		} else {
			n := v.(int)
			*d = &n
		}
	case *time.Time:
		*d = v.(time.Time)
	case **time.Time:
		if v == nil {
			*d = nil
		} else {
			t := v.(time.Time)
			*d = &t
		}
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}
