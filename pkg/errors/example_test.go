// Package errors provides examples of structured error handling in EduViz.
package errors_test

import (
	"fmt"
	"io"

	"github.com/eduviz/eduviz/pkg/errors"
)

// Example demonstrates basic error creation and categorization.
func Example() {
	err := errors.New(errors.ErrorTypeNotFound, "data file does not exist")

	err = err.WithDetail("path", "data/raw/grades.csv")

	fmt.Println(err.Error())

	// Output:
	// not_found: data file does not exist
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	// Simulate an underlying error
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeParse, "failed to read CSV row").
		WithDetail("file", "grades.csv").
		WithDetail("row", 42)

	if errors.IsType(err, errors.ErrorTypeParse) {
		fmt.Println("This is a parse error")
	}

	fmt.Println(err.Error())

	// Output:
	// This is a parse error
	// parse: failed to read CSV row: unexpected EOF
}
