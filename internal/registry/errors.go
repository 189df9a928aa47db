package registry

import "errors"

var (
	// ErrUnexpectedKey is returned for a dict declaration with an unknown key.
	ErrUnexpectedKey = errors.New("unexpected key in check declaration")

	// ErrInvalidValue is returned for a dict declaration value of the wrong type.
	ErrInvalidValue = errors.New("invalid value in check declaration")

	// ErrNodeInfoMismatch is returned when a sub-check and its section disagree
	// on node_info, or a sub-check without section sets it.
	ErrNodeInfoMismatch = errors.New("invalid check implementation")

	// ErrMixedCheckgroup is returned when a configuration group has checks with
	// and without item.
	ErrMixedCheckgroup = errors.New("checkgroup has checks with and without item")

	// ErrNotNormalized is returned when a snapshot is requested before all
	// declarations were normalized.
	ErrNotNormalized = errors.New("check declarations are not normalized")

	// ErrUnknownVariable is returned when setting a variable no check owns.
	ErrUnknownVariable = errors.New("unknown check variable")

	// ErrFrozen is returned when a frozen registry is modified.
	ErrFrozen = errors.New("registry is frozen")
)
