package extract

import (
	"errors"
	"fmt"
)

// Kind classifies every failure an extraction run can end in.
type Kind int

const (
	KindUnclassified Kind = iota
	KindConfiguration
	KindServiceAPI
	KindServiceUsage
	KindSDK
	KindStorage
)

// Kinds lists every Kind; message tables are tested against it.
var Kinds = []Kind{KindConfiguration, KindServiceAPI, KindServiceUsage, KindSDK, KindStorage, KindUnclassified}

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindServiceAPI:
		return "service_api"
	case KindServiceUsage:
		return "service_usage"
	case KindSDK:
		return "sdk"
	case KindStorage:
		return "storage"
	default:
		return "unclassified"
	}
}

// Error is the single error type returned by the extraction components.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with a kind. A nil err stays nil and an err that already
// carries a kind keeps it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind carried by err, or KindUnclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}
