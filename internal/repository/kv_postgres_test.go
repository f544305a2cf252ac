package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubPool struct {
	queryRowFunc func(ctx context.Context, query string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func (s *stubPool) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if s.queryRowFunc != nil {
		return s.queryRowFunc(ctx, query, args...)
	}
	return &stubRow{scan: func(dest ...any) error { return nil }}
}

func (s *stubPool) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if s.execFunc != nil {
		return s.execFunc(ctx, query, args...)
	}
	return pgconn.CommandTag{}, errors.New("exec not implemented")
}

type stubRow struct {
	scan func(dest ...any) error
}

func (s *stubRow) Scan(dest ...any) error {
	if s.scan != nil {
		return s.scan(dest...)
	}
	return nil
}

func TestPGXKVStore_Get(t *testing.T) {
	repo := NewPGXKVStore(&stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			if args[0] != "user_lang:7" {
				t.Fatalf("unexpected key %v", args[0])
			}
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = "en"
				return nil
			}}
		},
	})

	v, err := repo.Get(context.Background(), "user_lang:7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "en" {
		t.Fatalf("expected en, got %s", v)
	}
}

func TestPGXKVStore_GetNotFound(t *testing.T) {
	repo := NewPGXKVStore(&stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	})

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestPGXKVStore_Set(t *testing.T) {
	var captured []any
	repo := NewPGXKVStore(&stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			if !strings.Contains(query, "ON CONFLICT (key)") {
				t.Fatalf("expected upsert, got %s", query)
			}
			captured = args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	})

	if err := repo.Set(context.Background(), "user_lang:7", "zh"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured) != 2 || captured[0] != "user_lang:7" || captured[1] != "zh" {
		t.Fatalf("unexpected args: %v", captured)
	}
}

func TestPGXKVStore_Increment(t *testing.T) {
	repo := NewPGXKVStore(&stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			if args[1] != int64(1) {
				t.Fatalf("unexpected delta %v", args[1])
			}
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*int64) = 12
				return nil
			}}
		},
	})

	n, err := repo.Increment(context.Background(), "stats:searches:daily:2026-10-16", 1)
	if err != nil || n != 12 {
		t.Fatalf("expected 12, got %d / %v", n, err)
	}
}

func TestPGXKVStore_AddToSet(t *testing.T) {
	tags := []string{"INSERT 0 1", "INSERT 0 0"}
	call := 0
	repo := NewPGXKVStore(&stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			tag := pgconn.NewCommandTag(tags[call])
			call++
			return tag, nil
		},
	})

	added, err := repo.AddToSet(context.Background(), "stats:users:daily:2026-10-16", "7")
	if err != nil || !added {
		t.Fatalf("expected added, got %v / %v", added, err)
	}
	added, err = repo.AddToSet(context.Background(), "stats:users:daily:2026-10-16", "7")
	if err != nil || added {
		t.Fatalf("expected existing, got %v / %v", added, err)
	}
}

func TestPGXKVStore_ErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	repo := NewPGXKVStore(&stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return boom }}
		},
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, boom
		},
	})

	if _, err := repo.Get(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := repo.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := repo.AddToSet(context.Background(), "k", "m"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
