package service

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/rl1809/meal-order/internal/core/domain"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// ParseCatalog turns feed text into header-keyed rows. Quoted fields are
// handled by the CSV reader; when it rejects the input the text is split on
// plain commas instead, which mis-splits values containing commas.
func ParseCatalog(text string) ([]domain.RawRow, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	rows, err := parseQuoted(text)
	if err == nil {
		return rows, nil
	}

	rows, fallbackErr := parseLenient(text)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	return rows, nil
}

func parseQuoted(text string) ([]domain.RawRow, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func parseLenient(text string) ([]domain.RawRow, error) {
	var records [][]string
	for _, line := range lineBreak.Split(strings.TrimSpace(text), -1) {
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		records = append(records, cols)
	}
	if len(records) == 0 {
		return nil, domain.ErrFormat
	}
	return toRows(records), nil
}

func toRows(records [][]string) []domain.RawRow {
	if len(records) == 0 {
		return nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]domain.RawRow, 0, len(records)-1)
	for _, cols := range records[1:] {
		row := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cols) {
				row[h] = strings.TrimSpace(cols[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
