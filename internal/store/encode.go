package store

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
)

// timeLayout is fixed width so that TEXT ordering matches time ordering.
// Instants are always stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// formatDecimal renders d in plain notation; nil becomes NULL.
func formatDecimal(d *apd.Decimal) any {
	if d == nil {
		return nil
	}
	return d.Text('f')
}

// parseDecimal returns nil for NULL or unparseable text. Callers that
// aggregate treat nil as a missing value.
func parseDecimal(s sql.NullString) *apd.Decimal {
	if !s.Valid {
		return nil
	}
	d, _, err := apd.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return d
}
