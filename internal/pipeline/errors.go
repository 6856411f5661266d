package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindDecode means the source bytes are not a decodable image.
	KindDecode Kind = iota + 1
	// KindEncode means the canvas could not be serialized to the requested format.
	KindEncode
	// KindConfig means a configuration value could not be interpreted.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode error"
	case KindEncode:
		return "encode error"
	case KindConfig:
		return "config error"
	default:
		return "error"
	}
}

var (
	// ErrDecode matches any *Error of KindDecode.
	ErrDecode = errors.New("decode error")
	// ErrEncode matches any *Error of KindEncode.
	ErrEncode = errors.New("encode error")
	// ErrConfig matches any *Error of KindConfig.
	ErrConfig = errors.New("config error")
)

// Error is a pipeline failure with enough context to render a per-item notice.
type Error struct {
	Kind   Kind   `json:"kind"`
	Source string `json:"source,omitempty"`
	Err    error  `json:"-"`
}

// Error implements error
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s", e.Source, msg)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrEncode:
		return e.Kind == KindEncode
	case ErrConfig:
		return e.Kind == KindConfig
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithSource attaches a source filename to pipeline errors that lack one.
func WithSource(err error, source string) error {
	var e *Error
	if errors.As(err, &e) && e.Source == "" {
		return &Error{Kind: e.Kind, Source: source, Err: e.Err}
	}
	return err
}
