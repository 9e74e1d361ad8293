package csvcodec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microteca/pkg/models"
)

func sampleFields() models.Fields {
	return models.Fields{
		InternalCode:        "BCT-001",
		Genus:               "Escherichia",
		Species:             "coli",
		FullName:            "Escherichia coli",
		TaxonomicCategory:   "Bacteria",
		IsolationSource:     "Bovine feces",
		Host:                "Bos taurus",
		GeographicLocation:  "Salvador BA",
		IsolationDate:       "03/2021",
		MaldiIdentification: "E. coli score 2.31",
		Availability:        "Unavailable - Under review",
		ConservationType:    "Glycerol 20%",
		AdditionalNotes:     "Reference strain",
	}
}

func TestEncodeNaive(t *testing.T) {
	rec := models.Microorganism{ID: 9, Fields: sampleFields()}
	out, err := Encode(FormatNaive, []models.Microorganism{rec})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Header[:], ","), lines[0])
	assert.False(t, strings.HasSuffix(out, "\n"), "no trailing newline")

	t.Run("every value is quoted", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(lines[1], `"BCT-001","Escherichia"`))
		assert.True(t, strings.HasSuffix(lines[1], `"Reference strain"`))
	})

	t.Run("column order", func(t *testing.T) {
		tokens := strings.Split(strings.Trim(lines[1], `"`), `","`)
		require.Len(t, tokens, len(Header))
		assert.Equal(t, rec.InternalCode, tokens[0])
		assert.Equal(t, rec.TaxonomicCategory, tokens[4])
		assert.Equal(t, rec.Host, tokens[6])
		assert.Equal(t, rec.AdditionalNotes, tokens[12])
	})

	t.Run("empty collection is header only", func(t *testing.T) {
		out, err := Encode(FormatNaive, nil)
		require.NoError(t, err)
		assert.Equal(t, strings.Join(Header[:], ","), out)
	})

	t.Run("embedded quotes are not escaped", func(t *testing.T) {
		f := sampleFields()
		f.AdditionalNotes = `say "hi"`
		out, err := Encode(FormatNaive, []models.Microorganism{{ID: 1, Fields: f}})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, `"say "hi""`))
	})
}

func TestNaiveRoundTrip(t *testing.T) {
	want := sampleFields()
	out, err := Encode(FormatNaive, []models.Microorganism{{ID: 3, Fields: want}})
	require.NoError(t, err)

	rows, err := Decode(FormatNaive, strings.NewReader(out), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNaiveRoundTrip_CommaCorruptsFields(t *testing.T) {
	f := sampleFields()
	f.GeographicLocation = "Salvador, BA"
	out, err := Encode(FormatNaive, []models.Microorganism{{ID: 1, Fields: f}})
	require.NoError(t, err)

	rows, err := Decode(FormatNaive, strings.NewReader(out), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Salvador", rows[0].GeographicLocation)
	assert.Equal(t, "BA", rows[0].IsolationDate, "columns shift right after the comma")
}

func TestDecodeNaive(t *testing.T) {
	t.Run("header is discarded unchecked", func(t *testing.T) {
		rows, err := Decode(FormatNaive, strings.NewReader("anything at all\n\"A\",\"B\""), Options{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "A", rows[0].InternalCode)
		assert.Equal(t, "B", rows[0].Genus)
	})

	t.Run("missing trailing tokens are empty", func(t *testing.T) {
		rows, err := Decode(FormatNaive, strings.NewReader("h\nX-1"), Options{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.Fields{InternalCode: "X-1"}, rows[0])
	})

	t.Run("extra tokens are ignored", func(t *testing.T) {
		line := strings.Repeat("v,", 15) + "v"
		rows, err := Decode(FormatNaive, strings.NewReader("h\n"+line), Options{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "v", rows[0].AdditionalNotes)
	})

	t.Run("blank lines and CRLF", func(t *testing.T) {
		text := "h\r\n\r\n  \n\"A\" , \"B\"\r\n\n"
		rows, err := Decode(FormatNaive, strings.NewReader(text), Options{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "A", rows[0].InternalCode)
		assert.Equal(t, "B", rows[0].Genus)
	})

	t.Run("empty input imports nothing", func(t *testing.T) {
		rows, err := Decode(FormatNaive, strings.NewReader(""), Options{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("byte order mark", func(t *testing.T) {
		rows, err := Decode(FormatNaive, strings.NewReader("\ufeffh\nA"), Options{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}

func TestDecode_Failures(t *testing.T) {
	cases := []struct {
		name string
		in   string
		opts Options
		want error
	}{
		{"invalid utf8", "h\n\"A\"\n\xff\xfe", Options{}, ErrMalformed},
		{"nul byte", "h\nA\x00B", Options{}, ErrMalformed},
		{"too large", strings.Repeat("a", 32), Options{MaxBytes: 16}, ErrTooLarge},
		{"too many rows", "h\nA\nB\nC", Options{MaxRows: 2}, ErrTooManyRows},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := Decode(FormatNaive, strings.NewReader(tc.in), tc.opts)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Nil(t, rows)
		})
	}
}

func TestQuotedRoundTrip(t *testing.T) {
	f := sampleFields()
	f.GeographicLocation = "Salvador, BA"
	f.AdditionalNotes = "line one\nline \"two\""
	recs := []models.Microorganism{{ID: 1, Fields: f}, {ID: 2, Fields: sampleFields()}}

	out, err := Encode(FormatQuoted, recs)
	require.NoError(t, err)

	rows, err := Decode(FormatQuoted, strings.NewReader(out), Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	if diff := cmp.Diff([]models.Fields{f, sampleFields()}, rows); diff != "" {
		t.Errorf("quoted round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeQuoted_BareQuoteFails(t *testing.T) {
	rows, err := Decode(FormatQuoted, strings.NewReader("h\nA,B\"C,D\n"), Options{})
	assert.Error(t, err)
	assert.Nil(t, rows)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatNaive, "naive": FormatNaive, " Quoted ": FormatQuoted, "rfc4180": FormatQuoted} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2025, 1, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "microteca_export_2025-01-07.csv", ExportFilename(ts))
}
