package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestDecodeColumnConfig(t *testing.T) {
	t.Run("reads period letter pairs", func(t *testing.T) {
		got, err := decodeColumnConfig([]byte(`[[1, "ab"], [2, "AE"], [3, " ah "]]`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := []string{"AB", "AE", "AH"}
		if len(got) != len(want) {
			t.Fatalf("unexpected columns: %+v", got)
		}
		for i, c := range got {
			if c.Period != i+1 || c.Column != want[i] {
				t.Fatalf("column %d = %+v, want period %d %s", i, c, i+1, want[i])
			}
		}
	})

	t.Run("skips malformed pairs", func(t *testing.T) {
		got, err := decodeColumnConfig([]byte(`[[1], [0, "B"], ["2", "C"], [2, ""], [3, "D"]]`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 || got[0].Period != 3 || got[0].Column != "D" {
			t.Fatalf("unexpected columns: %+v", got)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		got, err := decodeColumnConfig(nil)
		if err != nil || got != nil {
			t.Fatalf("expected nil columns, got %+v %v", got, err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := decodeColumnConfig([]byte(`{"period":1}`)); err == nil {
			t.Fatalf("expected decode error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert player: %w", &pq.Error{Code: "23505"})
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) || isUniqueViolation(errors.New("boom")) {
		t.Fatalf("expected other errors to be ignored")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(errors.New("timeout")) {
		t.Fatalf("expected unrelated error to be ignored")
	}
}

func TestNullableHelpers(t *testing.T) {
	if nullInt64Ptr(sql.NullInt64{}) != nil || nullIntPtr(sql.NullInt32{}) != nil || nullTimePtr(sql.NullTime{}) != nil {
		t.Fatalf("expected nil for null values")
	}
	if got := nullInt64Ptr(sql.NullInt64{Int64: 5, Valid: true}); got == nil || *got != 5 {
		t.Fatalf("unexpected int64: %v", got)
	}
	if got := nullIntPtr(sql.NullInt32{Int32: 6, Valid: true}); got == nil || *got != 6 {
		t.Fatalf("unexpected int: %v", got)
	}

	now := time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)
	if v := timePtrToNull(&now); !v.Valid || !v.Time.Equal(now) {
		t.Fatalf("unexpected null time: %+v", v)
	}
	if timePtrToNull(nil).Valid {
		t.Fatalf("expected invalid null time")
	}
}
