package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduviz/eduviz/pkg/errors"
	"github.com/eduviz/eduviz/pkg/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New(table.NewSchema("grades", []table.Field{
		{Name: "student_id", Type: table.FieldTypeString, Nullable: true},
		{Name: "grade", Type: table.FieldTypeFloat, Nullable: true},
		{Name: "week", Type: table.FieldTypeInt, Nullable: true},
	}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD001", 7.5, int64(1)}))
	require.NoError(t, tbl.AppendRow([]interface{}{"STD002", nil, int64(2)}))
	return tbl
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(sampleTable(t), &buf, DefaultOptions()))

	want := "student_id,grade,week\nSTD001,7.5,1\nSTD002,,2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVNoHeader(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Header = false
	require.NoError(t, WriteCSV(sampleTable(t), &buf, opts))

	assert.Equal(t, "STD001,7.5,1\nSTD002,,2\n", buf.String())
}

func TestWriteCSVSemicolon(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Delimiter = ';'
	require.NoError(t, WriteCSV(sampleTable(t), &buf, opts))

	assert.Equal(t, "student_id;grade;week\nSTD001;7.5;1\nSTD002;;2\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(sampleTable(t), &buf, DefaultOptions()))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "STD001", rows[0]["student_id"])
	assert.Equal(t, 7.5, rows[0]["grade"])
	assert.Nil(t, rows[1]["grade"])
}

func TestSaveCSVGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.csv.gz")
	require.NoError(t, SaveCSV(sampleTable(t), path, DefaultOptions()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(gz)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "STD001,7.5,1")
}

func TestSaveAnyDispatch(t *testing.T) {
	dir := t.TempDir()

	t.Run("json extension", func(t *testing.T) {
		path := filepath.Join(dir, "out.json")
		require.NoError(t, SaveAny(sampleTable(t), path, DefaultOptions()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var rows []map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &rows))
		assert.Len(t, rows, 2)
	})

	t.Run("csv extension", func(t *testing.T) {
		path := filepath.Join(dir, "out.csv")
		require.NoError(t, SaveAny(sampleTable(t), path, DefaultOptions()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "student_id,grade,week")
	})

	t.Run("gzipped json", func(t *testing.T) {
		path := filepath.Join(dir, "out.json.gz")
		require.NoError(t, SaveAny(sampleTable(t), path, DefaultOptions()))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()

		var rows []map[string]interface{}
		require.NoError(t, json.NewDecoder(gz).Decode(&rows))
		assert.Len(t, rows, 2)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		err := SaveAny(sampleTable(t), filepath.Join(dir, "out.xlsx"), DefaultOptions())
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
	})
}

func TestSaveCSVCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.csv")
	require.NoError(t, SaveCSV(sampleTable(t), path, DefaultOptions()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
