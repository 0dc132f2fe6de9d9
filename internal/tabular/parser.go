// Package tabular turns uploaded CSV bytes into ordered row records. The
// header row defines field names; every following row becomes one record
// mapping field name to cell value.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"event-games-service/internal/domain"
)

// Parse reads the whole input. Inconsistent column counts or unreadable
// input surface as domain.ErrParse; an input with only a header (or nothing)
// yields an empty, non-nil payload.
func Parse(r io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	// csv enforces per-row field counts against the header by default.

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", domain.ErrParse, err)
	}

	rows := []domain.Row{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrParse, len(rows)+2, err)
		}
		row := make(domain.Row, len(header))
		for i, field := range header {
			row[field] = record[i]
		}
		rows = append(rows, row)
	}
}
