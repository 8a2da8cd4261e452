package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	csvFilePrefix    = "csi_data_"
	csvFileTimestamp = "20060102_150405"

	// Row timestamps carry microsecond precision.
	csvRowTimestamp = "2006-01-02 15:04:05.000000"
)

// CSVLog is the primary capture sink: an append-only CSV file with one
// row per accepted frame. A new timestamped file is created per capture
// run so that runs never clobber each other.
type CSVLog struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVLog creates the data directory if needed, opens a new capture
// file named after the current time and writes the header row for
// subcarriers number of amplitude columns.
func NewCSVLog(dir string, subcarriers int) (*CSVLog, error) {
	if subcarriers <= 0 {
		return nil, fmt.Errorf("invalid subcarrier count %d", subcarriers)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dir, csvFilePrefix+time.Now().Format(csvFileTimestamp)+".csv")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating capture file: %w", err)
	}

	header := make([]string, 0, subcarriers+1)
	header = append(header, "timestamp")
	for i := 0; i < subcarriers; i++ {
		header = append(header, fmt.Sprintf("subcarrier_%d", i))
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}

	return &CSVLog{path: path, file: file, writer: writer}, nil
}

// Path returns the full path of the capture file.
func (l *CSVLog) Path() string {
	return l.path
}

// Append writes one frame as a CSV row and flushes it, so rows are on
// disk even if the capture is interrupted.
func (l *CSVLog) Append(_ context.Context, timestamp time.Time, amplitudes []float64) error {
	row := make([]string, 0, len(amplitudes)+1)
	row = append(row, timestamp.Format(csvRowTimestamp))
	for _, v := range amplitudes {
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}

	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return fmt.Errorf("flushing row: %w", err)
	}
	return nil
}

func (l *CSVLog) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("flushing capture file: %w", err)
	}
	return l.file.Close()
}

// ReadCSV loads a capture file written by CSVLog and returns its frames
// in file order.
func ReadCSV(path string) ([]*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading capture file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("capture file %s is empty", path)
	}

	header := records[0]
	if len(header) < 2 || header[0] != "timestamp" || !strings.HasPrefix(header[1], "subcarrier_") {
		return nil, fmt.Errorf("capture file %s has an unexpected header", path)
	}
	subcarriers := len(header) - 1

	frames := make([]*Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != subcarriers+1 {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, subcarriers+1, len(record))
		}

		timestamp, err := time.Parse(csvRowTimestamp, record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing timestamp: %w", i+1, err)
		}

		amplitudes := make([]float64, subcarriers)
		for j, cell := range record[1:] {
			if amplitudes[j], err = strconv.ParseFloat(cell, 64); err != nil {
				return nil, fmt.Errorf("row %d: parsing amplitude %d: %w", i+1, j, err)
			}
		}

		frames = append(frames, &Frame{Timestamp: timestamp, Amplitudes: amplitudes})
	}
	return frames, nil
}
