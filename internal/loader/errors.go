package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVectors is returned by Upload when there are no records to write.
	// Run turns it into an empty Result.
	ErrNoVectors = errors.New("no vectors found")
	// ErrMalformedRecord marks a file that is valid JSON but not a vector record,
	// or not JSON at all.
	ErrMalformedRecord = errors.New("malformed vector record")
)

// MalformedRecordError reports why a file could not be used as a record.
type MalformedRecordError struct {
	Path   string
	Reason string
	cause  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedRecord, e.Path, e.Reason)
}

func (e *MalformedRecordError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.cause}
}
