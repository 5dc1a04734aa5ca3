package datanorm

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/directmail/internal/domain"
)

// ErrNoUsableColumns is returned when the header has neither an email
// column nor a street and zip column.
var ErrNoUsableColumns = errors.New("file needs an email column or address and zip columns")

// ErrTooManyRows is returned when a file exceeds the row limit.
var ErrTooManyRows = errors.New("file has too many rows")

// RecordFile is the parsed content of a list upload.
type RecordFile struct {
	Records []domain.Record
	Rows    int // data rows read, including blank ones
	Blank   int // rows with no value in any mapped column
	Columns map[string]CanonicalField
}

// SuppressionRow is one entry of a do-not-mail upload.
type SuppressionRow struct {
	Email   string
	Address string
	Zip     string
	Reason  string
	Note    string
}

// ReadRecords parses a CSV upload into records. maxRows <= 0 means no limit.
func ReadRecords(r io.Reader, sourceFile string, maxRows int) (*RecordFile, error) {
	cr, mapping, err := open(r)
	if err != nil {
		return nil, err
	}

	out := &RecordFile{Columns: mappedColumns(mapping)}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", out.Rows+2, err)
		}
		out.Rows++
		if maxRows > 0 && out.Rows > maxRows {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyRows, maxRows)
		}
		if blankRow(row, mapping) {
			out.Blank++
			continue
		}
		out.Records = append(out.Records, NormalizeRecord(row, mapping, sourceFile))
	}
	return out, nil
}

// ReadSuppressions parses a do-not-mail CSV upload.
func ReadSuppressions(r io.Reader, maxRows int) ([]SuppressionRow, error) {
	cr, mapping, err := open(r)
	if err != nil {
		return nil, err
	}

	var out []SuppressionRow
	for n := 0; ; n++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		if maxRows > 0 && n >= maxRows {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyRows, maxRows)
		}
		if blankRow(row, mapping) {
			continue
		}

		var s SuppressionRow
		for i, val := range row {
			val = strings.TrimSpace(val)
			switch mapping.FieldMap[i] {
			case FieldEmail:
				s.Email = normalizeEmail(val)
			case FieldAddress:
				s.Address = val
			case FieldZip:
				s.Zip = val
			case FieldReason:
				s.Reason = strings.ToLower(val)
			case FieldNote:
				s.Note = val
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func open(r io.Reader) (*csv.Reader, *ColumnMapping, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	mapping := MapColumns(header)
	if mapping == nil {
		return nil, nil, ErrNoUsableColumns
	}
	return cr, mapping, nil
}

func blankRow(row []string, mapping *ColumnMapping) bool {
	for i := range mapping.FieldMap {
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			return false
		}
	}
	return true
}

func mappedColumns(m *ColumnMapping) map[string]CanonicalField {
	out := make(map[string]CanonicalField, len(m.FieldMap))
	for i, f := range m.FieldMap {
		out[m.RawNames[i]] = f
	}
	return out
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}
