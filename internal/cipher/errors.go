package cipher

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Sentinel errors returned (optionally wrapped) by engine operations.
var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrNoHypothesis  = errors.New("no hypothesis found")
	ErrInternal      = errors.New("internal fault")
	ErrUnknownKind   = errors.New("unknown cipher kind")
	ErrInvalidParam  = errors.New("invalid parameter")
	ErrEmptyInput    = errors.New("empty input")
)

// UnknownSymbolError reports a token that has no entry in a fixed lookup
// table. Table names the table ("morse symbol", "coordinate", ...).
type UnknownSymbolError struct {
	Table string
	Token string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Table, e.Token)
}

// Is lets errors.Is(err, ErrUnknownSymbol) match.
func (e *UnknownSymbolError) Is(target error) bool {
	return target == ErrUnknownSymbol
}

// InternalError wraps a panic recovered at a decoder boundary.
type InternalError struct {
	Value any
	Stack []byte
}

func (e *InternalError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

func (e *InternalError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// safeDecode runs fn and converts a panic into a Failed outcome so callers
// always receive a value.
func safeDecode(fn func() Outcome) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(&InternalError{Value: r, Stack: debug.Stack()})
		}
	}()
	return fn()
}

func invalidParam(name string, format string, args ...any) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidParam, name, fmt.Sprintf(format, args...))
}
