package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound is returned when no provider has a model's source.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned by Register for a duplicate
	// identifier.
	ErrProviderAlreadyRegistered = errors.New("provider already registered")

	// ErrInconsistentCapability is returned by Register when a provider
	// declares a flag without implementing the matching operation.
	ErrInconsistentCapability = errors.New("capability declared but not implemented")

	// ErrNotSupported matches every *NotSupportedError.
	ErrNotSupported = errors.New("not supported")

	// ErrModelNotFound is returned when a provider has no such model.
	ErrModelNotFound = errors.New("model not found")

	// ErrMediaNotFound matches every *MediaNotFoundError.
	ErrMediaNotFound = errors.New("media not found")

	// ErrProviderIO matches every *IOError.
	ErrProviderIO = errors.New("provider io error")

	// ErrNoUserLoggedIn is returned by current-user operations when the
	// provider has no logged in user.
	ErrNoUserLoggedIn = errors.New("no user logged in")
)

// NotSupportedError reports a missing capability.
//
// It matches ErrNotSupported with errors.Is.
type NotSupportedError struct {
	Provider string
	Protocol string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support %s", e.Provider, e.Protocol)
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// MediaNotFoundReason tells the caller whether looking elsewhere may help.
type MediaNotFoundReason string

const (
	ReasonNotFound MediaNotFoundReason = "not_found"
	// ReasonCheckChildren means the model has no media of its own but its
	// children (e.g. an MV's parts) might.
	ReasonCheckChildren MediaNotFoundReason = "check_children"
)

// MediaNotFoundError is returned when a model exists but has no playable
// media for the requested quality policy.
type MediaNotFoundError struct {
	Reason  MediaNotFoundReason
	Message string
}

func (e *MediaNotFoundError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media not found (%s)", e.Reason)
	}
	return fmt.Sprintf("media not found (%s): %s", e.Reason, e.Message)
}

func (e *MediaNotFoundError) Is(target error) bool {
	return target == ErrMediaNotFound
}

// NewMediaNotFound returns a MediaNotFoundError with ReasonNotFound.
func NewMediaNotFound(msg string) error {
	return &MediaNotFoundError{Reason: ReasonNotFound, Message: msg}
}

// IOError wraps a transport failure inside a provider.
type IOError struct {
	Provider string
	Message  string
	Err      error
}

func (e *IOError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("provider %q io error: %s", e.Provider, msg)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool {
	return target == ErrProviderIO
}

// WrapIO returns err wrapped in an *IOError unless it already carries one
// of the taxonomy errors. nil stays nil.
func WrapIO(provider string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrProviderIO, ErrModelNotFound, ErrMediaNotFound, ErrNotSupported, ErrNoUserLoggedIn} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &IOError{Provider: provider, Err: err}
}

// Expected reports whether err is one of the failures the playback pipeline
// recovers from by trying a standby or the next song.
func Expected(err error) bool {
	return errors.Is(err, ErrProviderIO) ||
		errors.Is(err, ErrMediaNotFound) ||
		errors.Is(err, ErrModelNotFound) ||
		errors.Is(err, ErrNotSupported) ||
		errors.Is(err, ErrProviderNotFound) ||
		errors.Is(err, context.DeadlineExceeded)
}
