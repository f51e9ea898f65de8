package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeNotFound, "data file does not exist")

	assert.Equal(t, "not_found: data file does not exist", err.Error())
	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.NotEmpty(t, err.Stack)
	assert.Nil(t, err.Cause)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeConfig, "unsupported encoding %q", "koi8-r")
	assert.Equal(t, `config: unsupported encoding "koi8-r"`, err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, ErrorTypeFile, "failed to read data file")

	assert.Equal(t, "file: failed to read data file: boom", err.Error())
	assert.Equal(t, cause, err.Cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "ignored"))
}

func TestWrapPreservesInnerStack(t *testing.T) {
	inner := New(ErrorTypeParse, "bad row")
	outer := Wrap(inner, ErrorTypeFile, "load failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeParse, "field count mismatch").
		WithDetail("expected", 5).
		WithDetail("got", 3)

	assert.Equal(t, 5, err.Details["expected"])
	assert.Equal(t, 3, err.Details["got"])
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeEncoding, "not valid UTF-8")

	assert.True(t, IsType(err, ErrorTypeEncoding))
	assert.False(t, IsType(err, ErrorTypeParse))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeEncoding))
	assert.False(t, IsType(nil, ErrorTypeEncoding))
}

func TestIsTypeSeesThroughWrapping(t *testing.T) {
	inner := New(ErrorTypeNotFound, "missing")
	outer := Wrap(inner, ErrorTypeFile, "open failed")

	// the outermost category wins
	assert.True(t, IsType(outer, ErrorTypeFile))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeParse, TypeOf(New(ErrorTypeParse, "x")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("plain")))
}

func TestWrapStandardSentinel(t *testing.T) {
	err := Wrap(fs.ErrNotExist, ErrorTypeNotFound, "data file does not exist")

	require.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.True(t, IsType(err, ErrorTypeNotFound))
}
