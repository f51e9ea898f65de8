// Package loader reads delimited text files from disk into fully
// materialized tables.
//
// A load is synchronous and all-or-nothing: the file is opened once, closed
// on every exit path, and either every row of the source ends up in the
// returned table or the load fails with a categorized error. There is no
// partial result and no internal retry.
//
// # Errors
//
//   - errors.ErrorTypeNotFound: the path does not resolve to a readable file
//   - errors.ErrorTypeEncoding: the bytes cannot be decoded with the
//     configured (or detected) text encoding
//   - errors.ErrorTypeParse: a row's field count disagrees with the header,
//     or a value cannot be coerced to its declared type
//
// # Example
//
//	opts := loader.DefaultOptions()
//	opts.TypeOverrides = map[string]table.FieldType{"grade": table.FieldTypeFloat}
//
//	tbl, err := loader.Load(ctx, "data/raw/grades.csv", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	stderrors "errors"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/table"
)

// schemaSampleRows caps how many data rows feed type inference.
const schemaSampleRows = 100

// ctxCheckInterval is how many rows are parsed between cancellation checks.
const ctxCheckInterval = 1000

// RequiredStudentColumns are the columns every student-grade dataset must
// carry for the analysis layer to work.
var RequiredStudentColumns = []string{"student_id", "grade", "subject"}

// Options is the explicit, enumerated configuration of a load. Unknown
// parse behavior cannot be smuggled in through an untyped bag; every
// recognized option is a field here and anything else is rejected at the
// type level.
type Options struct {
	// Encoding names the text decoding scheme: utf-8, windows-1251,
	// iso-8859-1, utf-16, utf-16le or utf-16be. Empty means utf-8 with a
	// windows-1251 retry when the bytes are not valid UTF-8.
	Encoding string

	// Delimiter is the field separator.
	Delimiter rune

	// Header indicates whether the first row holds column names. Without a
	// header, columns are named field_0..field_n in order.
	Header bool

	// Comment, when non-zero, makes lines starting with it be ignored.
	Comment rune

	// TrimSpace strips surrounding whitespace from header names and
	// string cells. Numeric and boolean coercion tolerates surrounding
	// whitespace either way.
	TrimSpace bool

	// TypeOverrides forces the named columns to a target scalar type
	// instead of the inferred one. Overriding a column the file does not
	// have is a configuration error unless AllowUnknownOverrides is set.
	TypeOverrides map[string]table.FieldType

	// AllowUnknownOverrides skips the unknown-column check for
	// TypeOverrides, so one override set can cover files where some of
	// the named columns are optional.
	AllowUnknownOverrides bool
}

// DefaultOptions returns the load options used when the caller has no
// special requirements: comma-delimited UTF-8 with a header row.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Header:    true,
		TrimSpace: true,
	}
}

// Load reads the delimited file at path into a new table according to opts.
// The whole file is consumed before returning; the caller owns the result.
func Load(ctx context.Context, path string, opts Options) (*table.Table, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}

	decoded, err := decode(raw, opts.Encoding)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to decode file").
			WithDetail("path", path).
			WithDetail("encoding", opts.Encoding)
	}

	headers, rows, err := parseRows(ctx, decoded, opts)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			e.WithDetail("path", path)
		}
		return nil, err
	}

	schema := buildSchema(path, headers, rows, opts)
	if !opts.AllowUnknownOverrides {
		if err := checkOverrides(schema, opts.TypeOverrides); err != nil {
			return nil, err
		}
	}

	tbl, err := materialize(schema, rows, opts)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			e.WithDetail("path", path)
		}
		return nil, err
	}

	logger.WithContext(ctx).Info("CSV loaded",
		zap.String("file", path),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))

	return tbl, nil
}

// LoadStudentData loads a student-grade dataset and verifies it carries the
// required student_id, grade and subject columns.
func LoadStudentData(ctx context.Context, path string, opts Options) (*table.Table, error) {
	tbl, err := Load(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range RequiredStudentColumns {
		if tbl.Schema().FieldIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "required columns are missing").
			WithDetail("missing", strings.Join(missing, ", ")).
			WithDetail("path", path)
	}

	return tbl, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "data file does not exist").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open data file").
			WithDetail("path", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err == nil && info.IsDir() {
		return nil, errors.New(errors.ErrorTypeNotFound, "path is a directory, not a file").
			WithDetail("path", path)
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read data file").
			WithDetail("path", path)
	}
	return raw, nil
}

// decode converts raw file bytes to a UTF-8 string. With no explicit
// encoding, invalid UTF-8 gets one windows-1251 retry before failing;
// explicit encodings fail hard on undecodable input.
func decode(raw []byte, name string) (string, error) {
	switch normalizeEncoding(name) {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", errors.New(errors.ErrorTypeEncoding, "content is not valid UTF-8")
		}
		return string(raw), nil
	case "":
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		// Legacy exports from the faculty systems are windows-1251.
		return decodeWith(raw, charmap.Windows1251)
	case "windows-1251":
		return decodeWith(raw, charmap.Windows1251)
	case "iso-8859-1":
		return decodeWith(raw, charmap.ISO8859_1)
	case "utf-16":
		return decodeWith(raw, unicode.UTF16(unicode.BigEndian, unicode.UseBOM))
	case "utf-16le":
		return decodeWith(raw, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM))
	case "utf-16be":
		return decodeWith(raw, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported encoding %q", name)
	}
}

func decodeWith(raw []byte, enc encoding.Encoding) (string, error) {
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeEncoding, "failed to decode bytes")
	}
	return string(decoded), nil
}

func normalizeEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ""
	case "utf-8", "utf8":
		return "utf-8"
	case "windows-1251", "cp1251":
		return "windows-1251"
	case "iso-8859-1", "latin-1", "latin1":
		return "iso-8859-1"
	case "utf-16":
		return "utf-16"
	case "utf-16le":
		return "utf-16le"
	case "utf-16be":
		return "utf-16be"
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// parseRows splits the decoded content into a header and raw data rows.
// The csv reader enforces a consistent field count from the first record,
// so ragged rows surface here as parse errors.
func parseRows(ctx context.Context, content string, opts Options) ([]string, [][]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = opts.Delimiter
	reader.Comment = opts.Comment

	var headers []string
	var rows [][]string
	rowNum := 0

	for {
		if rowNum%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "load canceled")
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeParse, "malformed CSV row").
				WithDetail("row", rowNum+1)
		}
		rowNum++

		if opts.Header && headers == nil {
			headers = record
			if opts.TrimSpace {
				for i := range headers {
					headers[i] = strings.TrimSpace(headers[i])
				}
			}
			continue
		}
		rows = append(rows, record)
	}

	if !opts.Header {
		width := 0
		if len(rows) > 0 {
			width = len(rows[0])
		}
		headers = make([]string, width)
		for i := range headers {
			headers[i] = "field_" + strconv.Itoa(i)
		}
	}
	if headers == nil {
		headers = []string{}
	}

	return headers, rows, nil
}

func buildSchema(path string, headers []string, rows [][]string, opts Options) *table.Schema {
	samples := rows
	if len(samples) > schemaSampleRows {
		samples = samples[:schemaSampleRows]
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	schema := table.InferSchema(name, headers, samples)

	for i, field := range schema.Fields {
		if override, ok := opts.TypeOverrides[field.Name]; ok {
			schema.Fields[i].Type = override
		}
	}
	return schema
}

// checkOverrides rejects overrides naming columns the file does not have.
// Silently ignoring them would hide typos in caller configuration.
func checkOverrides(schema *table.Schema, overrides map[string]table.FieldType) error {
	for name := range overrides {
		if schema.FieldIndex(name) < 0 {
			return errors.Newf(errors.ErrorTypeConfig, "type override for unknown column %q", name)
		}
	}
	return nil
}

func materialize(schema *table.Schema, rows [][]string, opts Options) (*table.Table, error) {
	tbl := table.New(schema)

	cells := make([]interface{}, len(schema.Fields))
	for rowIdx, row := range rows {
		if len(row) != len(schema.Fields) {
			return nil, errors.New(errors.ErrorTypeParse, "row width does not match header").
				WithDetail("row", rowIdx+1).
				WithDetail("expected", len(schema.Fields)).
				WithDetail("got", len(row))
		}
		for i, raw := range row {
			value, err := parseCell(raw, schema.Fields[i].Type, opts.TrimSpace)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to coerce value").
					WithDetail("row", rowIdx+1).
					WithDetail("column", schema.Fields[i].Name)
			}
			cells[i] = value
		}
		if err := tbl.AppendRow(cells); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}

// parseCell coerces one raw field. With trimming disabled, string cells
// keep their surrounding whitespace; the empty string is still null.
func parseCell(raw string, fieldType table.FieldType, trim bool) (interface{}, error) {
	if !trim && fieldType == table.FieldTypeString {
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
	return table.ParseValue(raw, fieldType)
}
