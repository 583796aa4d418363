// Package incident aggregates incident report records into counts and map points.
package incident

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/datavis/shared"
)

const (
	colDate         = "incident_date"
	colLatitude     = "latitude"
	colLongitude    = "longitude"
	colNeighborhood = "neighborhood"
	colPerpetrator  = "perpetrator_name"
	colCrimeType    = "crime_type"
	colAge          = "age"

	// DefaultMaxAge is the default victim age bound for age filtered counts.
	DefaultMaxAge = 18
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing column")

	dateLayouts = []string{shared.DayLayout, shared.DateLayout, time.RFC3339, "01/02/2006"}
)

// Incident represents a single incident report.
type Incident struct {
	Date         time.Time
	Latitude     float64
	Longitude    float64
	HasLocation  bool
	Neighborhood string
	Perpetrator  string
	CrimeType    string
	VictimAge    int
	HasAge       bool
}

// parseDate parses an incident date in any of the supported layouts.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format %q", s)
}

// Load parses the incidents csv file at the provided path.
func Load(path string) ([]Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening incidents file: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV parses incidents from csv data. Columns are located by header name, unknown columns
// are ignored. Only the incident date column is required.
func ParseCSV(r io.Reader) ([]Incident, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	if _, ok := cols[colDate]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colDate)
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var incidents []Incident
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		date, err := parseDate(field(record, colDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		incident := Incident{
			Date:         date,
			Neighborhood: field(record, colNeighborhood),
			Perpetrator:  field(record, colPerpetrator),
			CrimeType:    field(record, colCrimeType),
		}

		lat, lon := field(record, colLatitude), field(record, colLongitude)
		if lat != "" && lon != "" {
			incident.Latitude, err = strconv.ParseFloat(lat, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing latitude: %w", line, err)
			}
			incident.Longitude, err = strconv.ParseFloat(lon, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing longitude: %w", line, err)
			}
			incident.HasLocation = true
		}

		if age := field(record, colAge); age != "" {
			incident.VictimAge, err = strconv.Atoi(age)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing age: %w", line, err)
			}
			incident.HasAge = true
		}

		incidents = append(incidents, incident)
	}

	return incidents, nil
}

// WithLocation returns the incidents that carry a latitude and longitude.
func WithLocation(incidents []Incident) []Incident {
	located := make([]Incident, 0, len(incidents))
	for idx := range incidents {
		if incidents[idx].HasLocation {
			located = append(located, incidents[idx])
		}
	}

	return located
}

// MonthCount represents the number of incidents in a month.
type MonthCount struct {
	Month string
	Count int
}

// MonthlyCounts counts incidents per month, ascending by month.
func MonthlyCounts(incidents []Incident) []MonthCount {
	counts := make(map[string]int)
	for idx := range incidents {
		counts[incidents[idx].Date.Format(shared.MonthLayout)]++
	}

	months := make([]MonthCount, 0, len(counts))
	for month, count := range counts {
		months = append(months, MonthCount{Month: month, Count: count})
	}
	slices.SortFunc(months, func(a, b MonthCount) int {
		return strings.Compare(a.Month, b.Month)
	})

	return months
}

// DayTypeCount represents the number of incidents of a crime type on a day.
type DayTypeCount struct {
	Day       string
	CrimeType string
	Count     int
}

// CountByDayAndType counts incidents with a known victim age at or below maxAge, grouped by day
// and crime type. Results are sorted by day then crime type.
func CountByDayAndType(incidents []Incident, maxAge int) []DayTypeCount {
	type key struct {
		day       string
		crimeType string
	}

	counts := make(map[key]int)
	for idx := range incidents {
		incident := &incidents[idx]
		if !incident.HasAge || incident.VictimAge > maxAge {
			continue
		}
		counts[key{incident.Date.Format(shared.DayLayout), incident.CrimeType}]++
	}

	grouped := make([]DayTypeCount, 0, len(counts))
	for k, count := range counts {
		grouped = append(grouped, DayTypeCount{Day: k.day, CrimeType: k.crimeType, Count: count})
	}
	slices.SortFunc(grouped, func(a, b DayTypeCount) int {
		if c := strings.Compare(a.Day, b.Day); c != 0 {
			return c
		}
		return strings.Compare(a.CrimeType, b.CrimeType)
	})

	return grouped
}

// HeatPoint represents a map point with hover text.
type HeatPoint struct {
	Latitude  float64
	Longitude float64
	Text      string
}

// HeatPoints creates map points for the located incidents.
func HeatPoints(incidents []Incident) []HeatPoint {
	located := WithLocation(incidents)
	points := make([]HeatPoint, len(located))
	for idx := range located {
		incident := &located[idx]
		points[idx] = HeatPoint{
			Latitude:  incident.Latitude,
			Longitude: incident.Longitude,
			Text: fmt.Sprintf("Perpetrator: %s\nDate: %s\nNeighborhood: %s", incident.Perpetrator,
				incident.Date.Format(shared.DayLayout), incident.Neighborhood),
		}
	}

	return points
}
