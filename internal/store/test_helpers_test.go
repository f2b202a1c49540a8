package store

import (
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/testutil"
)

var testCreatedAt = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store with sequential ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequenceIDs("row")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func mustDecimal(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	if err != nil {
		t.Fatalf("NewFromString(%q): %v", s, err)
	}
	return d
}

// createTestPlanItem creates a pending plan item with minimal required fields.
func createTestPlanItem(userID string, date civil.Date, kind domain.ActivityType, ref string) domain.PlanItem {
	return domain.PlanItem{
		UserID:      userID,
		Date:        date,
		Time:        civil.Time{Hour: 12},
		Type:        kind,
		ReferenceID: ref,
		Title:       string(kind) + " " + ref,
		CreatedAt:   testCreatedAt,
	}
}
