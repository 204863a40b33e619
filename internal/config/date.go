package config

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date flag value. It accepts 2006-01-02 and RFC 3339.
type Date struct {
	time.Time
}

// ParseDate parses value as a calendar date.
func ParseDate(value string) (Date, error) {
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return Date{Time: t}, nil
		}
	}

	return Date{}, fmt.Errorf("%w: %q is not a date, expected %s", ErrInvalidConfig, value, dateLayout)
}

// UnmarshalFlag implements flags.Unmarshaler.
func (d *Date) UnmarshalFlag(value string) error {
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// MarshalFlag implements flags.Marshaler.
func (d Date) MarshalFlag() (string, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.Format(dateLayout), nil
}
