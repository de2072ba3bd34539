package records

import "errors"

var (
	// ErrUnknownResource is returned when a resource is not in the catalog.
	ErrUnknownResource = errors.New("records: unknown resource")
	// ErrEmptyResourceName is returned when a resource has no name.
	ErrEmptyResourceName = errors.New("records: empty resource name")
	// ErrEmptyDateField is returned when a resource has no date field.
	ErrEmptyDateField = errors.New("records: empty date field")
	// ErrDuplicateResource is returned when a catalog lists a name twice.
	ErrDuplicateResource = errors.New("records: duplicate resource")
	// ErrNilRecord is returned when persisting a nil record.
	ErrNilRecord = errors.New("records: nil record")
)
