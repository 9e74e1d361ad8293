package csvcodec

import (
	"strings"

	"microteca/pkg/models"
)

func encodeNaive(records []models.Microorganism) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(Header[:], ","))
	for _, r := range records {
		vals := values(r.Fields)
		for i, v := range vals {
			// no escaping of embedded quotes
			vals[i] = `"` + v + `"`
		}
		lines = append(lines, strings.Join(vals, ","))
	}
	return strings.Join(lines, "\n")
}

func decodeNaive(text string, maxRows int) ([]models.Fields, error) {
	lines := strings.Split(text, "\n")

	var rows []models.Fields
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(rows) >= maxRows {
			return nil, ErrTooManyRows
		}
		tokens := strings.Split(line, ",")
		for i, tok := range tokens {
			tokens[i] = strings.TrimSpace(strings.ReplaceAll(tok, `"`, ""))
		}
		rows = append(rows, fromTokens(tokens))
	}
	return rows, nil
}
