package records

import (
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/qagate/pkg/query"
)

// Filter narrows a record query. Nil fields are ignored. From is
// inclusive and To is exclusive.
type Filter struct {
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Assignee  *string    `json:"assignee,omitempty"`
	Process   *string    `json:"process,omitempty"`
	LotNumber *string    `json:"lot_number,omitempty"`
}

// Validate rejects an empty or inverted date range.
func (f Filter) Validate() error {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return fmt.Errorf("%w: from %s is not before to %s", ErrInvalidFilter,
			f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))
	}
	return nil
}

// Match reports whether rec satisfies the filter.
func (f Filter) Match(rec Record) bool {
	if f.From != nil && rec.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && !rec.Timestamp.Before(*f.To) {
		return false
	}
	if f.Assignee != nil && rec.Assignee != *f.Assignee {
		return false
	}
	if f.Process != nil && rec.Process != *f.Process {
		return false
	}
	if f.LotNumber != nil && rec.LotNumber != *f.LotNumber {
		return false
	}
	return true
}

// Apply adds the filter's conditions to b.
func (f Filter) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereAtLeast("Timestamp", timeValue(f.From)).
		WhereBefore("Timestamp", timeValue(f.To)).
		WhereEquals("Assignee", value(f.Assignee)).
		WhereEquals("Process", value(f.Process)).
		WhereEquals("LotNumber", value(f.LotNumber))
}

// FilterFromQuery reads from, to, assignee, process and lot_number from
// values. Dates may be RFC 3339 timestamps or YYYY-MM-DD; a date-only to
// covers the whole day.
func FilterFromQuery(values url.Values) (Filter, error) {
	var f Filter

	if s := values.Get("from"); s != "" {
		t, _, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("%w: from: %v", ErrInvalidFilter, err)
		}
		f.From = &t
	}

	if s := values.Get("to"); s != "" {
		t, dateOnly, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("%w: to: %v", ErrInvalidFilter, err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		f.To = &t
	}

	if s := values.Get("assignee"); s != "" {
		f.Assignee = &s
	}
	if s := values.Get("process"); s != "" {
		f.Process = &s
	}
	if s := values.Get("lot_number"); s != "" {
		f.LotNumber = &s
	}

	return f, f.Validate()
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// value unwraps p so drivers receive a plain value; nil stays nil so the
// builder skips the condition.
func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeValue(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
