package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField signals a required document field that is absent.
	ErrMissingField = errors.New("missing field")
	// ErrUnhashableValue signals a value with no canonical serialization.
	ErrUnhashableValue = errors.New("unhashable value")
	// ErrFieldType signals a field present with the wrong value kind.
	ErrFieldType = errors.New("unexpected field type")
	// ErrEmptyResult signals that a fetch or filter produced no documents.
	ErrEmptyResult = errors.New("empty result")

	// ErrUnknownCalculator signals a calculator without a configured collection.
	ErrUnknownCalculator = errors.New("unknown calculator")
	// ErrUnknownCollection signals a collection tag missing from the store configuration.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnsupported signals an operation the configured backend cannot serve.
	ErrUnsupported = errors.New("unsupported by backend")
)

// StorageIDKeys are the keys that carry a storage identifier. They never take part
// in fingerprints or in the validity filter's key comparison.
var StorageIDKeys = []string{"_id", "mongo_id"}

// IsStorageIDKey reports whether key is a storage identifier key.
func IsStorageIDKey(key string) bool {
	return key == "_id" || key == "mongo_id"
}

// MissingFieldError wraps ErrMissingField with the absent field name.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingField.Error(), e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return &MissingFieldError{Field: field}
}

// UnhashableValueError wraps ErrUnhashableValue with the offending key.
type UnhashableValueError struct {
	Key    string
	Reason string
}

func (e *UnhashableValueError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", ErrUnhashableValue.Error(), e.Reason)
	}
	return fmt.Sprintf("%s at %q: %s", ErrUnhashableValue.Error(), e.Key, e.Reason)
}

func (e *UnhashableValueError) Unwrap() error { return ErrUnhashableValue }

// NewUnhashableValue creates an unhashable value error.
func NewUnhashableValue(key, reason string) error {
	return &UnhashableValueError{Key: key, Reason: reason}
}

// FieldTypeError wraps ErrFieldType with the expected and observed kinds.
type FieldTypeError struct {
	Field string
	Want  string
	Got   string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s: field %q is %s, want %s", ErrFieldType.Error(), e.Field, e.Got, e.Want)
}

func (e *FieldTypeError) Unwrap() error { return ErrFieldType }

// NewFieldType creates a field type error.
func NewFieldType(field, want, got string) error {
	return &FieldTypeError{Field: field, Want: want, Got: got}
}

// EmptyResultWarning reports that a stage produced no documents. It is not fatal:
// the stage still returns its (empty) result and callers decide how loud to be.
type EmptyResultWarning struct {
	Stage string
	Input int
}

func (w *EmptyResultWarning) Error() string {
	if w.Stage == "" {
		return fmt.Sprintf("%s: no matching documents out of %d", ErrEmptyResult.Error(), w.Input)
	}
	return fmt.Sprintf("%s: no matching documents in %s out of %d", ErrEmptyResult.Error(), w.Stage, w.Input)
}

func (w *EmptyResultWarning) Unwrap() error { return ErrEmptyResult }
