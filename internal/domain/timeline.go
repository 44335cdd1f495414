package domain

import (
	"fmt"
	"time"
)

// Timeline checks that data rows advance one hour at a time through the
// periods a header declares. Sub-hourly files may repeat an hour up to
// RecordsPerHour times. A jump is only accepted onto the first hour of a
// declared period, and the last hour of the year wraps to January 1.
type Timeline struct {
	year    int
	perHour int
	last    int
	starts  map[int]bool

	started bool
	prev    HourlyRecord
	prevIdx int
	repeats int
}

// NewTimeline creates a Timeline for files with header h.
func NewTimeline(h Header) *Timeline {
	year := 2001
	if h.LeapYearObserved {
		year = 2000
	}
	perHour := max(h.RecordsPerHour, 1)
	t := &Timeline{
		year:    year,
		perHour: perHour,
		last:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()*24 - 1,
		starts:  make(map[int]bool, len(h.DataPeriods)),
	}
	for _, p := range h.DataPeriods {
		if idx, ok := t.hourOfYear(p.StartMonth, p.StartDay, 1); ok {
			t.starts[idx] = true
		}
	}
	return t
}

// Next checks rec, found on 1-based line lineNo, against the previous row.
func (t *Timeline) Next(rec HourlyRecord, lineNo int) error {
	idx, ok := t.hourOfYear(rec.Month, rec.Day, rec.Hour)
	if !ok {
		return &FormatError{Line: lineNo, Field: "day", Reason: fmt.Sprintf("no such date %d/%d", rec.Month, rec.Day)}
	}
	defer func() {
		t.prev, t.prevIdx, t.started = rec, idx, true
	}()
	if !t.started {
		t.repeats = 1
		return nil
	}

	switch {
	case idx == t.prevIdx && t.repeats < t.perHour:
		t.repeats++
		return nil
	case idx == t.prevIdx+1, t.prevIdx == t.last && idx == 0, idx != t.prevIdx && t.starts[idx]:
		t.repeats = 1
		return nil
	}
	return &FormatError{
		Line:   lineNo,
		Reason: fmt.Sprintf("timestamp %s does not follow %s",
			stamp(rec), stamp(t.prev)),
	}
}

// hourOfYear returns the zero-based hour index of an hour-ending timestamp.
func (t *Timeline) hourOfYear(month, day, hour int) (int, bool) {
	d := time.Date(t.year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(d.Month()) != month || d.Day() != day {
		return 0, false
	}
	return (d.YearDay()-1)*24 + hour - 1, true
}

func stamp(r HourlyRecord) string {
	return fmt.Sprintf("%02d/%02d hour %d", r.Month, r.Day, r.Hour)
}
