// Package csvcodec converts catalog records to and from the comma-separated
// exchange format used for bulk export and import.
//
// The default naive format wraps every exported value in double quotes
// without escaping and splits imported lines on every comma. Values holding
// commas, quotes or newlines do not survive a round trip in that format; the
// quoted format (RFC 4180) does and is available on request.
package csvcodec

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"microteca/pkg/models"
)

type Format string

const (
	FormatNaive  Format = "naive"
	FormatQuoted Format = "quoted"
)

var (
	ErrTooLarge      = errors.New("csv input exceeds upload limit")
	ErrTooManyRows   = errors.New("csv input exceeds row limit")
	ErrMalformed     = errors.New("csv input is not valid text")
	ErrUnknownFormat = errors.New("unknown csv format")
)

// Header is the fixed column order shared by export and import.
var Header = [...]string{
	"Internal Code",
	"Genus",
	"Species",
	"Full Name",
	"Taxonomic Category",
	"Isolation Source",
	"Host",
	"Geographic Location",
	"Isolation Date",
	"MALDI-TOF Identification",
	"Availability",
	"Conservation Type",
	"Additional Notes",
}

// Options bounds an import. Zero values fall back to MaxUploadSize and MaxRows.
type Options struct {
	MaxBytes int64
	MaxRows  int
}

func (o Options) withDefaults() Options {
	if o.MaxBytes <= 0 {
		o.MaxBytes = MaxUploadSize
	}
	if o.MaxRows <= 0 {
		o.MaxRows = MaxRows
	}
	return o
}

// ParseFormat maps a user supplied name to a Format; empty means naive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "naive":
		return FormatNaive, nil
	case "quoted", "rfc4180":
		return FormatQuoted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Encode renders records with a header line. Lines are joined with "\n"
// and there is no trailing newline.
func Encode(format Format, records []models.Microorganism) (string, error) {
	switch format {
	case FormatNaive, "":
		return encodeNaive(records), nil
	case FormatQuoted:
		return encodeQuoted(records)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode parses an export back into record fields. The first line is the
// header and is discarded unchecked. Any error aborts the whole decode and
// no rows are returned.
func Decode(format Format, r io.Reader, opts Options) ([]models.Fields, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, ErrTooLarge
	}
	if !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return nil, ErrMalformed
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	var rows []models.Fields
	switch format {
	case FormatNaive, "":
		rows, err = decodeNaive(text, opts.MaxRows)
	case FormatQuoted:
		rows, err = decodeQuoted(text, opts.MaxRows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportFilename names a download after the export date.
func ExportFilename(t time.Time) string {
	return "microteca_export_" + t.Format("2006-01-02") + ".csv"
}

// values returns the fields of f in column order.
func values(f models.Fields) []string {
	return []string{
		f.InternalCode,
		f.Genus,
		f.Species,
		f.FullName,
		f.TaxonomicCategory,
		f.IsolationSource,
		f.Host,
		f.GeographicLocation,
		f.IsolationDate,
		f.MaldiIdentification,
		f.Availability,
		f.ConservationType,
		f.AdditionalNotes,
	}
}

// fromTokens maps tokens positionally; missing trailing tokens are empty
// and extra tokens are ignored.
func fromTokens(tokens []string) models.Fields {
	at := func(i int) string {
		if i < len(tokens) {
			return tokens[i]
		}
		return ""
	}
	return models.Fields{
		InternalCode:        at(0),
		Genus:               at(1),
		Species:             at(2),
		FullName:            at(3),
		TaxonomicCategory:   at(4),
		IsolationSource:     at(5),
		Host:                at(6),
		GeographicLocation:  at(7),
		IsolationDate:       at(8),
		MaldiIdentification: at(9),
		Availability:        at(10),
		ConservationType:    at(11),
		AdditionalNotes:     at(12),
	}
}
