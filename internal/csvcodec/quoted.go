package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"microteca/pkg/models"
)

func encodeQuoted(records []models.Microorganism) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(Header[:]); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(values(r.Fields)); err != nil {
			return "", fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func decodeQuoted(text string, maxRows int) ([]models.Fields, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []models.Fields
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		if len(rows) >= maxRows {
			return nil, ErrTooManyRows
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, fromTokens(rec))
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
