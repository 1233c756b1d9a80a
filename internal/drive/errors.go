package drive

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials means no API key or client ID is configured. It is
	// returned before any network traffic.
	ErrMissingCredentials = errors.New("google drive API key or client ID is missing")
	// ErrServiceInitFailed means the picker or identity services never became
	// reachable within the readiness deadline.
	ErrServiceInitFailed = errors.New("google drive services failed to initialize")
	// ErrAuthDeclined means the user cancelled consent. Callers treat it as a no-op.
	ErrAuthDeclined = errors.New("authorization declined")
	// ErrUnauthorized is returned by object stores for an HTTP 401.
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUnauthorizedAfterRetry = errors.New("unauthorized after re-authorization")
	ErrTransferFailed         = errors.New("drive transfer failed")
	ErrPickerCancelled        = errors.New("picker cancelled")
	// ErrAuthorizationInFlight refuses a credential change while consent is pending.
	ErrAuthorizationInFlight = errors.New("authorization in progress; try again once it completes")
)

// TransferError describes a failed download or upload.
type TransferError struct {
	Op    string
	Name  string
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("drive %s of %q failed: %v", e.Op, e.Name, e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}
