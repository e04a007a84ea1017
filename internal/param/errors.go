package param

import "errors"

var (
	// ErrOutOfRange indicates a configured value outside [Min, Max].
	ErrOutOfRange = errors.New("param: value outside allowed range")

	// ErrMalformed indicates a cell or distribution that cannot be parsed.
	ErrMalformed = errors.New("param: malformed value")

	// ErrUnknownUnit indicates a unit name with no SI conversion.
	ErrUnknownUnit = errors.New("param: unknown unit")

	// ErrNoBand indicates a per-band parameter without an entry for a band.
	ErrNoBand = errors.New("param: no entry for band")
)
