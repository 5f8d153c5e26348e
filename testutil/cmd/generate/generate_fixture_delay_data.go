package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/trainmining/delaystats/delaystats"
)

const (
	// NumDelayObservations - number of departures to be created - adapt as needed
	//
	// WARNING
	//
	// 10 Million observations create a CSV file of roughly 600MB which the import streams into the DB.
	NumDelayObservations = 1_000_000

	// NumDays is the number of consecutive days the observations are spread over.
	NumDays = 28

	// IncidentPerMille is how many of 1000 departures get an incident record.
	IncidentPerMille = 3

	OutputDir             = "testutil/fixtures" // The directory to put the fixture data into - should be fine as is.
	OutputDelayCSVFile    = "station_delay.csv"
	OutputInfoCSVFile     = "station_info.csv"
	OutputIncidentCSVFile = "incident.csv"
)

var (
	stations = []string{
		"Hauptbahnhof", "Altstadt", "Nordpark", "Südkreuz", "Messe", "Universität",
		"Rathaus", "Westend", "Hafen", "Flughafen", "Ostbahnhof", "Stadion",
	}

	// an empty kind keeps the single-token names that carry no line
	lines = []struct{ kind, number string }{
		{"S", "1"}, {"S", "2"}, {"S", "3"}, {"U", "4"}, {"U", "7"},
		{"Bus", "42"}, {"Tram", "12"}, {"", "ICE"}, {"", "RE"},
	}

	infoTexts = [][2]string{
		{"lift", "lift out of order"},
		{"escalator", "escalator under maintenance"},
		{"platform", "platform change due to construction"},
	}

	incidentTexts = []string{"signal failure", "door fault", "staff shortage", "emergency doctor on site", ""}
)

type writers struct {
	files     []*os.File
	delays    *csv.Writer
	infos     *csv.Writer
	incidents *csv.Writer
}

func main() {
	if err := GenerateFixtureDataCSV(); err != nil {
		panic(fmt.Sprintf("Error generating fixture data: %v\n", err))
	}
}

func GenerateFixtureDataCSV() error {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	outputDir := filepath.Join(projectRoot, OutputDir)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w, err := setupWriters(outputDir)
	if err != nil {
		return err
	}

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -NumDays)
	rng := rand.New(rand.NewPCG(uint64(start.Unix()), 42)) //nolint:gosec

	genErr := generate(w, rng, start)
	if closeErr := closeWriters(w); genErr == nil {
		genErr = closeErr
	}

	if genErr != nil {
		return genErr
	}

	fmt.Printf("Successfully generated %d delay observations over %d days into %s\n", NumDelayObservations, NumDays, outputDir)

	return nil
}

func setupWriters(outputDir string) (*writers, error) {
	w := &writers{}

	open := func(name string) (*csv.Writer, error) {
		f, err := os.Create(filepath.Join(outputDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV file %s: %w", name, err)
		}

		w.files = append(w.files, f)

		return csv.NewWriter(f), nil
	}

	var err error
	if w.delays, err = open(OutputDelayCSVFile); err != nil {
		return nil, errors.Join(err, closeWriters(w))
	}

	if w.infos, err = open(OutputInfoCSVFile); err != nil {
		return nil, errors.Join(err, closeWriters(w))
	}

	if w.incidents, err = open(OutputIncidentCSVFile); err != nil {
		return nil, errors.Join(err, closeWriters(w))
	}

	return w, nil
}

func closeWriters(w *writers) error {
	var errs []error

	for _, cw := range []*csv.Writer{w.delays, w.infos, w.incidents} {
		if cw != nil {
			cw.Flush()
			errs = append(errs, cw.Error())
		}
	}

	for _, f := range w.files {
		errs = append(errs, f.Close())
	}

	return errors.Join(errs...)
}

func generate(w *writers, rng *rand.Rand, start time.Time) error {
	step := time.Duration(NumDays) * 24 * time.Hour / NumDelayObservations

	for i := 0; i < NumDelayObservations; i++ {
		planned := start.Add(time.Duration(i) * step).Truncate(time.Minute)
		station := stations[rng.IntN(len(stations))]
		line := lines[rng.IntN(len(lines))]

		transportationName := line.number
		if line.kind != "" {
			transportationName = line.kind + " " + line.number
		}

		if err := w.delays.Write([]string{
			station,
			transportationName,
			strconv.Itoa(delayMinutes(rng, planned)),
			planned.Format(delaystats.TimestampLayout),
		}); err != nil {
			return fmt.Errorf("failed to write delay record: %w", err)
		}

		if rng.IntN(1000) < IncidentPerMille {
			if err := w.incidents.Write([]string{
				station,
				transportationName,
				strconv.Itoa(1000 + rng.IntN(9000)),
				incidentTexts[rng.IntN(len(incidentTexts))],
				delaystats.DateOf(planned).String(),
			}); err != nil {
				return fmt.Errorf("failed to write incident record: %w", err)
			}
		}
	}

	for day := 0; day < NumDays; day++ {
		date := delaystats.DateOf(start.AddDate(0, 0, day))

		for _, station := range stations {
			if rng.IntN(10) != 0 {
				continue
			}

			text := infoTexts[rng.IntN(len(infoTexts))]
			if err := w.infos.Write([]string{station, text[0], text[1], date.String()}); err != nil {
				return fmt.Errorf("failed to write station info record: %w", err)
			}
		}
	}

	return nil
}

// delayMinutes skews delays upward during the weekday rush hours so the prime-time statistics differ from the rest.
func delayMinutes(rng *rand.Rand, planned time.Time) int {
	delay := rng.IntN(4)

	weekday := planned.Weekday()
	hour := planned.Hour()
	rush := weekday != time.Saturday && weekday != time.Sunday && ((hour >= 6 && hour < 9) || (hour >= 16 && hour < 19))

	if rush {
		delay += rng.IntN(8)
	}

	if rng.IntN(50) == 0 {
		delay += 15 + rng.IntN(45)
	}

	return delay
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (no go.mod found)")
}
