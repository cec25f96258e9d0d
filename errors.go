package morphon

import (
	"errors"
	"fmt"
	"strings"
)

// errPrefix starts every message of this package. Error drops it from the
// wrapped message so it appears once.
const errPrefix = "morphon: "

// Error kinds. Use errors.Is to classify a returned error.
var (
	ErrTypeMismatch        = errors.New("morphon: type mismatch")
	ErrDuplicateTag        = errors.New("morphon: duplicate type tag")
	ErrUnknownType         = errors.New("morphon: unknown type")
	ErrMissingTypeTag      = errors.New("morphon: missing type tag")
	ErrInvalidData         = errors.New("morphon: invalid data")
	ErrMissingField        = errors.New("morphon: missing field")
	ErrUnresolvedReference = errors.New("morphon: unresolved reference")
	ErrIOFailure           = errors.New("morphon: io failure")
	ErrDecodeFailure       = errors.New("morphon: decode failure")
	ErrRegistrySealed      = errors.New("morphon: registry sealed")
)

// Error carries the operation, type tag and attribute key that were being
// processed when Err occurred.
type Error struct {
	Op  string
	Tag string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(errPrefix)
	b.WriteString(e.Op)
	if e.Tag != "" {
		fmt.Fprintf(&b, " tag=%q", e.Tag)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(strings.TrimPrefix(e.Err.Error(), errPrefix))
	} else {
		b.WriteString("<nil>")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapError attaches operation metadata to err. An existing *Error keeps its
// own values and only has empty fields filled in.
func wrapError(op, tag, key string, err error) error {
	if err == nil {
		return nil
	}

	var merr *Error
	if errors.As(err, &merr) {
		if merr.Op == "" {
			merr.Op = op
		}
		if merr.Tag == "" {
			merr.Tag = tag
		}
		if merr.Key == "" {
			merr.Key = key
		}
		return err
	}

	return &Error{Op: op, Tag: tag, Key: key, Err: err}
}

func kindError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func mismatch(want string, got Kind) error {
	return kindError(ErrTypeMismatch, "want %s, got %s", want, got)
}
