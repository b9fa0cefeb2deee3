package core

// convert.go turns spreadsheet cells into record values and back.
//
// Spreadsheet dates travel as DD/MM/YYYY; the API and the database use ISO
// dates. A date that does not parse becomes null instead of failing the row.

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ExternalDateLayout is the day/month/year layout used by the CSV files.
const ExternalDateLayout = "02/01/2006"

// ISODateLayout is the layout accepted and emitted by the JSON API.
const ISODateLayout = "2006-01-02"

// "2/1/2006" also accepts zero-padded input; both are tried so that
// single-digit days written by some spreadsheet locales still parse.
var externalDateLayouts = []string{ExternalDateLayout, "2/1/2006"}

// ParseExternalDate parses a DD/MM/YYYY cell. Empty or malformed input
// yields an invalid (null) date.
func ParseExternalDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}
	}
	for _, layout := range externalDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}
	return pgtype.Date{}
}

// FormatExternalDate renders a date as DD/MM/YYYY, or "" when null.
func FormatExternalDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(ExternalDateLayout)
}

// ParseISODate parses a YYYY-MM-DD value. Empty input yields null.
func ParseISODate(s string) (pgtype.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}, nil
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// FromPgText returns the text value or "" when null.
func FromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// ToPgInt4 converts an int to pgtype.Int4.
func ToPgInt4(i int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// ToPgInt8 converts an id to pgtype.Int8; zero is treated as null.
func ToPgInt8(i int64) pgtype.Int8 {
	if i == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

// ParseID parses a positive record identifier.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a header cell:
// surrounding whitespace, an Excel formula prefix (="...") and quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
