package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

// Column headers as they appear in the order export.
const (
	TrackingColumn  = "Nº de Rastreio"
	InvoiceColumn   = "Número da NF-e"
	RecipientColumn = "Nome do Destinatário"
)

// ErrMissingColumns indicates the export lacks one of the required headers.
var ErrMissingColumns = errors.New("manifest: required columns missing")

// Record is one manifest row keyed by tracking identifier.
type Record struct {
	Invoice   string
	Recipient string
}

// Manifest is the immutable identifier -> record table loaded before a run.
type Manifest struct {
	records map[string]Record
}

// Empty returns a manifest with no records. Lookups against it always miss.
func Empty() *Manifest {
	return &Manifest{records: map[string]Record{}}
}

// Load reads the order export CSV. Headers are matched case-insensitively,
// values are kept as strings to preserve leading zeros, and rows with an empty
// tracking identifier are dropped.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads manifest rows from r. The first row must be the header.
func Parse(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return nil, fmt.Errorf("read manifest header: %w", err)
	}

	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	records := make(map[string]Record)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row: %w", err)
		}
		tracking := strings.TrimSpace(field(row, idx.tracking))
		if tracking == "" {
			continue
		}
		records[tracking] = Record{
			Invoice:   strings.TrimSpace(field(row, idx.invoice)),
			Recipient: strings.TrimSpace(field(row, idx.recipient)),
		}
	}

	return &Manifest{records: records}, nil
}

// Resolve looks up a decoded payload. The returned bool reports membership.
func (m *Manifest) Resolve(payload string) (Record, bool, error) {
	rec, ok := m.records[strings.TrimSpace(payload)]
	return rec, ok, nil
}

// Len reports the number of loaded records.
func (m *Manifest) Len() int {
	return len(m.records)
}

type indexes struct {
	tracking  int
	invoice   int
	recipient int
}

func columnIndexes(header []string) (indexes, error) {
	fold := cases.Fold()
	find := func(want string) int {
		target := fold.String(strings.TrimSpace(want))
		for i, actual := range header {
			if fold.String(strings.TrimSpace(actual)) == target {
				return i
			}
		}
		return -1
	}

	idx := indexes{
		tracking:  find(TrackingColumn),
		invoice:   find(InvoiceColumn),
		recipient: find(RecipientColumn),
	}
	if idx.tracking < 0 || idx.invoice < 0 || idx.recipient < 0 {
		return idx, fmt.Errorf("%w: want %q, %q, %q; have %v",
			ErrMissingColumns, TrackingColumn, InvoiceColumn, RecipientColumn, header)
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
