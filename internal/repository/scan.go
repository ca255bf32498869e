package repository

import (
	"fmt"
	"time"
)

// sqlTime scans a nullable timestamp. Aggregates such as MIN(due_date) lose
// their declared column type on SQLite and come back as text, so plain
// time.Time scanning is not enough.
type sqlTime struct {
	Time  time.Time
	Valid bool
}

var sqlTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range sqlTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// Ptr returns nil for NULL.
func (t sqlTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	out := t.Time
	return &out
}

// Now is the creation timestamp written by repositories. Seconds precision
// matches what a MySQL DATETIME column keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
