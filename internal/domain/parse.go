package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// HeaderLines is the number of metadata lines before the first data row.
const HeaderLines = 8

var headerKeywords = [HeaderLines]string{
	"LOCATION",
	"DESIGN CONDITIONS",
	"TYPICAL/EXTREME PERIODS",
	"GROUND TEMPERATURES",
	"HOLIDAYS/DAYLIGHT SAVINGS",
	"COMMENTS 1",
	"COMMENTS 2",
	"DATA PERIODS",
}

// ParseHeader decodes the eight header lines of an EPW file. Errors are
// *FormatError with the 1-based line number set and Path left empty.
func ParseHeader(lines []string) (Header, error) {
	if len(lines) != HeaderLines {
		return Header{}, &FormatError{Reason: fmt.Sprintf("expected %d header lines, got %d", HeaderLines, len(lines))}
	}

	var h Header
	for i, line := range lines {
		fields := splitFields(line)
		if strings.ToUpper(fields[0]) != headerKeywords[i] {
			return Header{}, &FormatError{Line: i + 1, Reason: fmt.Sprintf("expected %s line, got %q", headerKeywords[i], fields[0])}
		}
		rest := fields[1:]

		var err error
		switch i {
		case 0:
			h.Location, err = parseLocation(rest)
		case 1:
			h.DesignConditions = rest
		case 2:
			h.TypicalExtremePeriods = rest
		case 3:
			h.GroundTemperatures = rest
		case 4:
			err = parseHolidays(&h, rest)
		case 5:
			h.Comments1 = joinComment(line)
		case 6:
			h.Comments2 = joinComment(line)
		case 7:
			err = parseDataPeriods(&h, rest)
		}
		if err != nil {
			if fe, ok := err.(*FormatError); ok {
				fe.Line = i + 1
				return Header{}, fe
			}
			return Header{}, &FormatError{Line: i + 1, Reason: err.Error()}
		}
	}
	return h, nil
}

func splitFields(line string) []string {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// joinComment keeps commas inside free-text comment lines.
func joinComment(line string) string {
	_, after, _ := strings.Cut(strings.TrimRight(line, "\r\n"), ",")
	return strings.TrimSpace(after)
}

func parseLocation(f []string) (Location, error) {
	if len(f) != 9 {
		return Location{}, &FormatError{Field: "LOCATION", Reason: fmt.Sprintf("expected 10 fields, got %d", len(f)+1)}
	}
	loc := Location{City: f[0], State: f[1], Country: f[2], Source: f[3], WMO: f[4]}

	coords := []struct {
		name     string
		dst      *float64
		min, max float64
	}{
		{"latitude", &loc.Latitude, -90, 90},
		{"longitude", &loc.Longitude, -180, 180},
		{"time zone", &loc.TimeZone, -12, 14},
		{"elevation", &loc.Elevation, -1000, 9999.9},
	}
	for i, c := range coords {
		v, err := strconv.ParseFloat(f[5+i], 64)
		if err != nil {
			return Location{}, &FormatError{Field: c.name, Reason: fmt.Sprintf("not a number: %q", f[5+i])}
		}
		if v < c.min || v > c.max {
			return Location{}, &FormatError{Field: c.name, Reason: fmt.Sprintf("%g outside [%g, %g]", v, c.min, c.max)}
		}
		*c.dst = v
	}
	return loc, nil
}

func parseHolidays(h *Header, f []string) error {
	if len(f) < 3 {
		return &FormatError{Field: "HOLIDAYS/DAYLIGHT SAVINGS", Reason: "expected leap year flag and daylight saving dates"}
	}
	switch strings.ToLower(f[0]) {
	case "yes", "y":
		h.LeapYearObserved = true
	case "no", "n":
	default:
		return &FormatError{Field: "leap year observed", Reason: fmt.Sprintf("expected Yes or No, got %q", f[0])}
	}
	h.DaylightSavingStart = f[1]
	h.DaylightSavingEnd = f[2]
	if len(f) > 4 {
		h.Holidays = f[4:]
	}
	return nil
}

func parseDataPeriods(h *Header, f []string) error {
	if len(f) < 2 {
		return &FormatError{Field: "DATA PERIODS", Reason: "expected period count and records per hour"}
	}
	n, err := strconv.Atoi(f[0])
	if err != nil || n < 1 {
		return &FormatError{Field: "number of data periods", Reason: fmt.Sprintf("invalid value %q", f[0])}
	}
	perHour, err := strconv.Atoi(f[1])
	if err != nil || perHour < 1 || perHour > 60 || 60%perHour != 0 {
		return &FormatError{Field: "records per hour", Reason: fmt.Sprintf("invalid value %q", f[1])}
	}
	if len(f) < 2+4*n {
		return &FormatError{Field: "DATA PERIODS", Reason: fmt.Sprintf("declares %d periods but has %d fields", n, len(f)+1)}
	}

	h.RecordsPerHour = perHour
	h.DataPeriods = make([]DataPeriod, n)
	for i := range n {
		p := f[2+4*i : 6+4*i]
		sm, sd, err := parseMonthDay(p[2])
		if err != nil {
			return &FormatError{Field: "period start", Reason: err.Error()}
		}
		em, ed, err := parseMonthDay(p[3])
		if err != nil {
			return &FormatError{Field: "period end", Reason: err.Error()}
		}
		h.DataPeriods[i] = DataPeriod{
			Name:           p[0],
			StartDayOfWeek: p[1],
			StartMonth:     sm,
			StartDay:       sd,
			EndMonth:       em,
			EndDay:         ed,
		}
	}
	return nil
}

// parseMonthDay reads "m/d" or "m/d/yyyy"; EPW writers pad with spaces ("1/ 1").
func parseMonthDay(s string) (int, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid date %q", s)
	}
	m, errM := strconv.Atoi(strings.TrimSpace(parts[0]))
	d, errD := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errM != nil || errD != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, fmt.Errorf("invalid date %q", s)
	}
	return m, d, nil
}

// ParseRecord decodes one data row. lineNo is the 1-based line in the file and
// is only used for error context.
func ParseRecord(line string, lineNo int) (HourlyRecord, error) {
	f := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(f) != RowFields {
		return HourlyRecord{}, &FormatError{Line: lineNo, Reason: fmt.Sprintf("expected %d fields, got %d", RowFields, len(f))}
	}

	var rec HourlyRecord
	ints := []struct {
		name     string
		col      int
		dst      *int
		min, max int
	}{
		{"year", colYear, &rec.Year, 0, 9999},
		{"month", colMonth, &rec.Month, 1, 12},
		{"day", colDay, &rec.Day, 1, 31},
		{"hour", colHour, &rec.Hour, 1, 24},
		{"minute", colMinute, &rec.Minute, 0, 60},
	}
	for _, c := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(f[c.col]))
		if err != nil || v < c.min || v > c.max {
			return HourlyRecord{}, &FormatError{Line: lineNo, Field: c.name, Reason: fmt.Sprintf("invalid value %q", f[c.col])}
		}
		*c.dst = v
	}
	rec.Flags = strings.TrimSpace(f[colFlags])
	rec.PresentWeatherCodes = strings.TrimSpace(f[colPresentWeatherCodes])

	for i := range NumFields {
		spec := fieldSpecs[i]
		raw := strings.TrimSpace(f[spec.Column])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return HourlyRecord{}, &FormatError{Line: lineNo, Field: spec.Name, Reason: fmt.Sprintf("not a number: %q", raw)}
		}
		var discarded bool
		rec.Readings[i], discarded = spec.decode(v)
		if discarded {
			rec.OutOfRange |= 1 << i
		}
	}
	return rec, nil
}
