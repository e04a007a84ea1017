package experiment

import (
	"errors"
	"strings"

	"github.com/san-kum/bolocalc/internal/param"
)

// Configuration errors. All of them abort a run.
var (
	// ErrOutOfRange indicates a parameter value outside its allowed range.
	ErrOutOfRange = param.ErrOutOfRange

	// ErrMissingFile indicates a required configuration, band or PDF file is absent.
	ErrMissingFile = errors.New("experiment: missing required file")

	// ErrDuplicateName indicates two siblings share a name.
	ErrDuplicateName = errors.New("experiment: duplicate sibling name")

	// ErrMalformed indicates a file or cell that cannot be interpreted.
	ErrMalformed = errors.New("experiment: malformed configuration")

	// ErrUnknownParameter indicates a parameter name no level accepts.
	ErrUnknownParameter = errors.New("experiment: unknown parameter")

	// ErrMissingParameter indicates a required parameter set to NA.
	ErrMissingParameter = errors.New("experiment: required parameter not set")

	// ErrNoMatch indicates an overlay naming an entity that does not exist.
	ErrNoMatch = errors.New("experiment: no matching entity")
)

// ConfigError wraps an error with the location it was found at.
type ConfigError struct {
	Path   string
	Entity string
	Param  string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Entity != "" {
		b.WriteString(e.Entity)
		b.WriteString(": ")
	}
	if e.Param != "" {
		b.WriteString(e.Param)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(path, entity, name string, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Path: path, Entity: entity, Param: name, Err: err}
}
