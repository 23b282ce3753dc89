package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the federation flow. Callers classify with errors.Is;
// everything wrapping ErrStorageUnavailable is safe to retry as a whole new
// callback, never resumed mid-sequence.
var (
	// ErrExternalAuthFailed means the upstream provider step did not succeed.
	// Fatal to the callback, never silently retried.
	ErrExternalAuthFailed = errors.New("external authentication failed")

	// ErrMissingSubjectClaim means the assertion carried no subject and no
	// name-identifier claim. Logged as a security-relevant event.
	ErrMissingSubjectClaim = errors.New("external assertion carries no subject claim")

	// ErrUntrustedRedirect means the requested post-login destination is
	// neither local nor registered. Must abort, never fall back to the hint.
	ErrUntrustedRedirect = errors.New("untrusted redirect target")

	// ErrStorageUnavailable covers storage-collaborator failures, including
	// partial-apply aborts. Transient.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConcurrentProvisioning means a second callback provisioned the same
	// (provider, subject) first. Matches ErrStorageUnavailable under
	// errors.Is, so generic retry handling applies.
	ErrConcurrentProvisioning = fmt.Errorf("%w: concurrent provisioning", ErrStorageUnavailable)

	// ErrUserNotFound is returned by lookups that found no user.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateLogin is returned by the repository when a (provider,
	// subject) binding already exists.
	ErrDuplicateLogin = errors.New("login binding already exists")
)
