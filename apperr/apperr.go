// Package apperr classifies failures so transports can map them to responses
// without knowing which package produced them.
package apperr

import "errors"

type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidID
	KindNotFound
	KindStore
	KindPartialFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidID:
		return "invalid_id"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store_error"
	case KindPartialFailure:
		return "partial_failure"
	default:
		return "unknown"
	}
}

// Error attaches a Kind and an optional operation name to a cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func InvalidID(err error) error {
	return &Error{Kind: KindInvalidID, Err: err}
}

func NotFound(err error) error {
	return &Error{Kind: KindNotFound, Err: err}
}

// Store marks err as a storage failure of op. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStore, Op: op, Err: err}
}

func PartialFailure(op string, err error) error {
	return &Error{Kind: KindPartialFailure, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
