package service

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"syscall"
)

type errTmpIf interface{ Temporary() bool }
type errTmp struct{ error }

func (t errTmp) Temporary() bool    { return true }
func (t *errTmp) Unwrap() error     { return t.error }
func MakeTemporary(err error) error { return &errTmp{err} }

// Temporary inspects the error trace and returns whether the error is transient
func Temporary(err error) bool {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	//First override some default syscall temporary statuses
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EIO, syscall.EBUSY, syscall.ECANCELED, syscall.ECONNABORTED, syscall.ECONNRESET, syscall.ENOMEM, syscall.EPIPE:
			return true
		}
	}

	//first check explicitely marked error
	var tmp errTmpIf
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// ConfigError is a programmer/user-facing configuration failure.
// The harvest run does not start when one is raised.
type ConfigError struct {
	Reason string
	Err    error
}

func (e ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e ConfigError) Unwrap() error { return e.Err }

// MakeConfig wraps err as a ConfigError
func MakeConfig(reason string, err error) error { return ConfigError{Reason: reason, Err: err} }

// IsConfig returns whether the error trace contains a ConfigError
func IsConfig(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// AdapterError is a data-facing failure of one source adapter (network,
// authentication, provider rejection, quota). The orchestrator catches it,
// records a failed manifest entry and continues with the next source.
type AdapterError struct {
	Source string
	Err    error
}

func (e AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Source, e.Err)
}

func (e AdapterError) Unwrap() error { return e.Err }

// MakeAdapter wraps err as an AdapterError for the given source
func MakeAdapter(source string, err error) error { return AdapterError{Source: source, Err: err} }

// AsAdapter extracts an AdapterError from the error trace
func AsAdapter(err error, target *AdapterError) bool { return errors.As(err, target) }

// SequenceError signals a remote-image pipeline step invoked out of order.
// It is a programmer error: surfaced immediately, never caught or retried.
type SequenceError struct {
	Step  string
	State string
}

func (e SequenceError) Error() string {
	return fmt.Sprintf("sequence: %s called in state %s", e.Step, e.State)
}

// IsSequence returns whether the error trace contains a SequenceError
func IsSequence(err error) bool {
	var se SequenceError
	return errors.As(err, &se)
}
