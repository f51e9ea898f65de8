// Package export writes tables back out as delimited text or JSON.
//
// The CSV writer is the exact inverse of the loader: nulls render as empty
// fields and typed cells render through the same textual forms the loader
// coerces from, so a save/load round trip preserves the table when the
// original schema's types are reapplied.
package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"encoding/csv"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/logger"
	"github.com/eduviz/eduviz/pkg/table"
)

// Options controls how a table is rendered.
type Options struct {
	// Delimiter is the CSV field separator.
	Delimiter rune

	// Header controls whether the column names are written as a first row.
	Header bool

	// Compress forces gzip output. Paths ending in .gz compress regardless.
	Compress bool

	// Indent pretty-prints JSON output when true.
	Indent bool
}

// DefaultOptions returns comma-delimited output with a header row.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Header:    true,
	}
}

// WriteCSV renders the table as delimited text to w.
func WriteCSV(tbl *table.Table, w io.Writer, opts Options) error {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.Delimiter

	if opts.Header {
		if err := writer.Write(tbl.Columns()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header row")
		}
	}

	record := make([]string, tbl.NumCols())
	for i := 0; i < tbl.NumRows(); i++ {
		cells := tbl.Cells(i)
		for j, cell := range cells {
			record[j] = table.FormatValue(cell)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row").
				WithDetail("row", i+1)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV output")
	}
	return nil
}

// SaveCSV writes the table to a file, creating parent directories as
// needed. Output is gzip-compressed when requested or when the path ends
// in .gz.
func SaveCSV(tbl *table.Table, path string, opts Options) error {
	w, closeAll, err := openOutput(path, opts.Compress)
	if err != nil {
		return err
	}

	if err := WriteCSV(tbl, w, opts); err != nil {
		closeAll()
		return err
	}
	if err := closeAll(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file").
			WithDetail("path", path)
	}

	logger.Get().Info("table exported",
		zap.String("file", path),
		zap.Int("rows", tbl.NumRows()))
	return nil
}

// WriteJSON renders the table as an array of row objects to w.
func WriteJSON(tbl *table.Table, w io.Writer, opts Options) error {
	rows := make([]table.Row, tbl.NumRows())
	for i := range rows {
		rows[i] = tbl.Row(i)
	}

	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rows); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to encode rows as JSON")
	}
	return nil
}

// SaveJSON writes the table as JSON records to a file, gzip-compressed when
// requested or when the path ends in .gz.
func SaveJSON(tbl *table.Table, path string, opts Options) error {
	w, closeAll, err := openOutput(path, opts.Compress)
	if err != nil {
		return err
	}

	if err := WriteJSON(tbl, w, opts); err != nil {
		closeAll()
		return err
	}
	if err := closeAll(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file").
			WithDetail("path", path)
	}

	logger.Get().Info("table exported",
		zap.String("file", path),
		zap.Int("rows", tbl.NumRows()))
	return nil
}

// SaveAny dispatches on the path extension: .json for JSON records, .csv
// for CSV. A trailing .gz compresses either format. Other extensions are
// rejected rather than silently written as CSV.
func SaveAny(tbl *table.Table, path string, opts Options) error {
	switch ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz"))); ext {
	case ".json":
		return SaveJSON(tbl, path, opts)
	case ".csv", "":
		return SaveCSV(tbl, path, opts)
	default:
		return errors.Newf(errors.ErrorTypeCapability, "unsupported export format %q", ext).
			WithDetail("path", path)
	}
}

// openOutput opens the target file, layering a gzip writer when asked for.
// The returned close function flushes and closes every layer.
func openOutput(path string, compress bool) (io.Writer, func() error, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
				WithDetail("path", dir)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}

	if compress || strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz := gzip.NewWriter(file)
		return gz, func() error {
			if err := gz.Close(); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		}, nil
	}

	return file, file.Close, nil
}
