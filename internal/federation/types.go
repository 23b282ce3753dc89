package federation

import "github.com/latsic/idbridge/internal/core"

type CallbackRequest struct {
	// Result is the outcome of the completed upstream roundtrip.
	Result *core.ExternalAuthResult

	// ReturnURL is the post-login destination hint carried through the
	// challenge roundtrip.
	ReturnURL string
}

type CallbackResponse struct {
	// Session is handed to the session issuer by the caller.
	Session core.SessionDescriptor

	// Redirect is the validated post-login navigation instruction.
	Redirect core.RedirectDecision

	// Provisioned marks that this callback created the user.
	Provisioned bool
}
