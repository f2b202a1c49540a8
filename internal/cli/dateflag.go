package cli

import (
	"cloud.google.com/go/civil"
	"github.com/spf13/pflag"

	"github.com/roach88/healthsync/internal/domain"
)

// dateValue is a YYYY-MM-DD flag. The zero value means "today".
type dateValue civil.Date

var _ pflag.Value = (*dateValue)(nil)

func (d *dateValue) String() string {
	if civil.Date(*d).IsZero() {
		return ""
	}
	return civil.Date(*d).String()
}

func (d *dateValue) Set(s string) error {
	parsed, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	*d = dateValue(parsed)
	return nil
}

func (d *dateValue) Type() string {
	return "date"
}

// Or returns the flag's date, or today when unset.
func (d *dateValue) Or(today civil.Date) civil.Date {
	if civil.Date(*d).IsZero() {
		return today
	}
	return civil.Date(*d)
}

// addDateFlag registers a date flag on fs.
func addDateFlag(fs *pflag.FlagSet, d *dateValue, name, usage string) {
	fs.Var(d, name, usage+" (YYYY-MM-DD, default today)")
}
