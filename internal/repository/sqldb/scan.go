package sqldb

import (
	"fmt"
	"time"

	"github.com/ignite/rate-intel/internal/domain"
)

// dayValue scans a calendar date stored as DATE (postgres) or TEXT
// (sqlite).
type dayValue struct{ t *time.Time }

func (d dayValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		y, m, dd := v.Date()
		*d.t = time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d dayValue) parse(s string) error {
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d.t = t
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// timeValue scans a nullable timestamp stored as TIMESTAMPTZ or TEXT.
type timeValue struct{ t **time.Time }

func (tv timeValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*tv.t = nil
		return nil
	case time.Time:
		u := v.UTC()
		*tv.t = &u
		return nil
	case []byte:
		return tv.parse(string(v))
	case string:
		return tv.parse(v)
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (tv timeValue) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			*tv.t = &u
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognized %q", s)
}

// requiredTime scans a NOT NULL timestamp.
type requiredTime struct{ t *time.Time }

func (r requiredTime) Scan(src any) error {
	var p *time.Time
	if err := (timeValue{t: &p}).Scan(src); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("scan timestamp: unexpected NULL")
	}
	*r.t = *p
	return nil
}

func dayArg(t time.Time) string { return t.Format(domain.DateLayout) }

// timestamps are written fixed-width so TEXT columns sort chronologically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeArg(t time.Time) string { return t.UTC().Format(tsLayout) }
