// Package registry implements the ownership, invitation, and
// publish-authorization core of the package registry, together with the
// release-metadata engine gated on it (yank/unyank and per-toolchain
// build-status recording).
package registry

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to API callers. Handlers map these to stable
// reason codes; everything else is treated as an internal failure.
var (
	// ErrLastOwner is returned when an owner removal would leave a crate
	// with zero individual (user) owners. Team owners do not count toward
	// the floor.
	ErrLastOwner = errors.New("cannot remove all individual owners of a crate")

	// ErrAlreadyOwner is returned when an owner add names a user or team
	// that already holds an owner row on the crate.
	ErrAlreadyOwner = errors.New("is already an owner")

	// ErrInvitationNotFound is returned when accepting or declining an
	// invitation that does not exist (or was already resolved).
	ErrInvitationNotFound = errors.New("crate owner invitation not found")

	// ErrInsufficientRights is returned when the acting user lacks
	// publish rights on the crate.
	ErrInsufficientRights = errors.New("must already be an owner")

	// ErrNamespaceExistsChildMissing distinguishes "the crate you asked
	// for is missing, but its namespace crate exists" from a plain
	// not-found, so clients can explain how to obtain publish rights.
	ErrNamespaceExistsChildMissing = errors.New(
		"this crate doesn't exist, but it belongs to a namespace which exists")

	// ErrUnrecognizedChannel is returned for a rust version whose release
	// component carries a pre-release tag that is neither beta nor
	// nightly.
	ErrUnrecognizedChannel = errors.New("not recognized as nightly, beta, or stable")
)

// NotFoundError reports a missing crate or version by name.
type NotFoundError struct {
	Crate   string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("crate `%s` does not have a version `%s`", e.Crate, e.Version)
	}
	return fmt.Sprintf("crate `%s` does not exist", e.Crate)
}

// DuplicateVersionError is returned when publishing a version number that
// the crate already has.
type DuplicateVersionError struct {
	Version string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("crate version `%s` is already uploaded", e.Version)
}

// MalformedDescriptorError is returned when a rust version descriptor does
// not match the expected shape at all.
type MalformedDescriptorError struct {
	Descriptor string
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("rust_version `%s` not recognized; expected format like `rustc X.Y.Z (SHA YYYY-MM-DD)`", e.Descriptor)
}

// ChannelError wraps ErrUnrecognizedChannel with the offending descriptor.
type ChannelError struct {
	Descriptor string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("rust_version `%s` %v", e.Descriptor, ErrUnrecognizedChannel)
}

func (e *ChannelError) Unwrap() error { return ErrUnrecognizedChannel }

// RetryableError marks a transient collaborator failure (datastore,
// index publication) that the caller may retry. Yank and unyank are safe
// to retry since they are idempotent on the flag state.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable reports whether err is (or wraps) a RetryableError.
func Retryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
