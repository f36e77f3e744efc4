package gasdb

import "github.com/surfcat/gasdb/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingField      = domain.ErrMissingField
	ErrFieldType         = domain.ErrFieldType
	ErrUnhashableValue   = domain.ErrUnhashableValue
	ErrEmptyResult       = domain.ErrEmptyResult
	ErrUnknownCalculator = domain.ErrUnknownCalculator
	ErrUnknownCollection = domain.ErrUnknownCollection
	ErrUnsupported       = domain.ErrUnsupported
)
