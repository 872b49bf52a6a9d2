// Package record decodes fixed-width code listings into CodeRecords.
package record

import (
	"errors"
	"fmt"
)

// RootLength is the length of a top-level category code.
const RootLength = 3

// CodeRecord is one decoded line of a code listing.
type CodeRecord struct {
	Order            int
	Code             string
	Description      string
	ShortDescription string
	Header           bool
	HasHeader        bool
	Valid            bool
	Line             int
}

// IndentLevel is the depth implied by the code length; 0 is a root category.
func (r CodeRecord) IndentLevel() int {
	return len(r.Code) - RootLength
}

// Root returns the three-character category the code belongs to.
func (r CodeRecord) Root() string {
	if len(r.Code) < RootLength {
		return r.Code
	}
	return r.Code[:RootLength]
}

var (
	// ErrMalformedRecord is matched by every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptyCode is the reason given when the empty-code policy is reject.
	ErrEmptyCode = errors.New("empty code")
)

// MalformedRecordError describes a line that cannot be decoded safely.
type MalformedRecordError struct {
	Line   int
	Reason string
	Text   string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRecord) true.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
