package rules

import "errors"

var (
	// ErrDuplicateRule is returned when a rule id is registered twice.
	// Treated as fatal at startup.
	ErrDuplicateRule = errors.New("duplicate rule id")

	// ErrInvalidRule is returned when a rule misses required attributes.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidPredicate is returned when a predicate definition cannot
	// be decoded into exactly one AST node.
	ErrInvalidPredicate = errors.New("invalid predicate")
)
