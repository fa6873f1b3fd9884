package postgres

import (
	"database/sql"
	"testing"
	"time"
)

func TestNullTimeToTimePtr(t *testing.T) {
	t.Run("returns nil for null", func(t *testing.T) {
		if got := nullTimeToTimePtr(sql.NullTime{}); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("copies valid time", func(t *testing.T) {
		at := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
		got := nullTimeToTimePtr(sql.NullTime{Time: at, Valid: true})
		if got == nil || !got.Equal(at) {
			t.Fatalf("expected %v, got %v", at, got)
		}
	})
}

func TestNullStringToStringPtr(t *testing.T) {
	if got := nullStringToStringPtr(sql.NullString{}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := nullStringToStringPtr(sql.NullString{String: "Rapids", Valid: true})
	if got == nil || *got != "Rapids" {
		t.Fatalf("expected Rapids, got %v", got)
	}
}

func TestNullInt64ToIntPtr(t *testing.T) {
	if got := nullInt64ToIntPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := nullInt64ToIntPtr(sql.NullInt64{Int64: 3, Valid: true})
	if got == nil || *got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}
