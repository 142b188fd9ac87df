package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type RaceRecord struct {
	ID     int
	Lineup string // Strategy names joined by "+"
	RaceMetric
}

type StandingRecord struct {
	Race      int // RaceRecord.ID
	Place     int
	Cockroach int
	Strategy  string
	Distance  float64
	Finished  bool
}

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp> to hold the experiment's files.
func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteRaceRecords(records []RaceRecord) error {
	header := []string{"id", "lineup", "cockroaches", "goroutines", "ticks", "evaluations", "finishers", "fallbacks", "start_time", "duration"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			strconv.Itoa(record.ID),
			record.Lineup,
			strconv.Itoa(record.Cockroaches),
			strconv.Itoa(record.Goroutines),
			strconv.Itoa(record.Ticks),
			strconv.Itoa(record.Evaluations),
			strconv.Itoa(record.Finishers),
			strconv.Itoa(record.Fallbacks),
			record.StartTime.Format(time.RFC3339),
			record.Duration.String(),
		}
	}
	return w.write("race_records.csv", header, rows)
}

func (w *Writer) WriteStandingRecords(records []StandingRecord) error {
	header := []string{"race", "place", "cockroach", "strategy", "distance", "finished"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			strconv.Itoa(record.Race),
			strconv.Itoa(record.Place),
			strconv.Itoa(record.Cockroach),
			record.Strategy,
			strconv.FormatFloat(record.Distance, 'f', -1, 64),
			strconv.FormatBool(record.Finished),
		}
	}
	return w.write("standings_records.csv", header, rows)
}

func (w *Writer) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", file, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", file, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", file, err)
	}
	return nil
}
