// Package federation turns external authentication results into local users,
// reconciled claims and session descriptors.
package federation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/latsic/idbridge/internal/claims"
	"github.com/latsic/idbridge/internal/core"
)

// Service is the federation orchestrator. One invocation per inbound
// callback; idempotent across exact duplicate redeliveries because the claim
// replace and the login existence check are both idempotent.
type Service struct {
	users       core.UserRepository
	normalizer  *claims.Normalizer
	redirects   *RedirectValidator
	interaction core.AuthorizationContextService
	auditor     core.Auditor
}

func NewService(
	users core.UserRepository,
	normalizer *claims.Normalizer,
	interaction core.AuthorizationContextService,
	auditor core.Auditor,
) *Service {
	return &Service{
		users:       users,
		normalizer:  normalizer,
		redirects:   NewRedirectValidator(interaction),
		interaction: interaction,
		auditor:     auditor,
	}
}

// HandleCallback is the top-level state transition for one inbound callback:
// validate, normalize, resolve or provision, reconcile, link, persist, then
// emit the session descriptor and redirect decision.
//
// Steps are never retried in isolation. Everything wrapping
// core.ErrStorageUnavailable is safe to retry as a whole new invocation.
func (s *Service) HandleCallback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error) {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := core.AuditEntry{
		ID:        reqID,
		Time:      time.Now(),
		Action:    core.AuditLoginFailure,
		ReturnURL: req.ReturnURL,
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for login callback")
		}
	}()

	// step 1: the upstream roundtrip must have produced a usable result
	if req.Result == nil || req.Result.Provider == "" {
		auditEntry.Error = "external authentication failed"
		return nil, httpError(http.StatusBadGateway, core.ErrExternalAuthFailed)
	}
	provider := req.Result.Provider
	auditEntry.Provider = provider

	// step 2: subject extraction + claim normalization
	subjectID, batch, err := s.normalizer.Normalize(req.Result)
	if err != nil {
		auditEntry.Error = "missing subject claim"
		auditEntry.Stacktrace = err.Error()
		logger.Warn().Str("provider", provider).Msg("assertion without subject claim rejected")
		return nil, httpError(http.StatusUnauthorized, err)
	}
	auditEntry.SubjectID = subjectID

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("provider", provider).Str("subject", subjectID)
	})

	// validate the redirect hint before touching storage, so an open-redirect
	// attempt causes zero writes
	redirect, err := s.redirects.Decide(req.ReturnURL)
	if err != nil {
		auditEntry.Action = core.AuditRedirectRejected
		auditEntry.Error = "untrusted redirect"
		auditEntry.Stacktrace = err.Error()
		logger.Warn().Str("return_url", req.ReturnURL).Msg("untrusted redirect target rejected")
		return nil, httpError(http.StatusBadRequest, err)
	}
	if clientCtx := s.interaction.AuthorizationContext(redirect.TargetURL); clientCtx != nil {
		auditEntry.ClientID = clientCtx.ClientID
	}

	// steps 3-7 run inside one scoped transaction; rollback on every exit
	// path so no half-written claim set or duplicate login stays visible
	user, provisioned, keptBinding, err := s.integrate(ctx, provider, subjectID, batch)
	if err != nil {
		auditEntry.Error = "user integration failed"
		auditEntry.Stacktrace = err.Error()
		return nil, mapStorageError(err)
	}
	auditEntry.UserID = user.ID
	auditEntry.DisplayName = user.UserName
	auditEntry.Provisioned = provisioned

	// step 8: carry protocol artifacts forward into the local session
	session := buildSession(user, req.Result)

	auditEntry.Action = core.AuditLoginSuccess
	auditEntry.Success = true
	if keptBinding != nil {
		logger.Warn().
			Str("user_id", user.ID).
			Str("existing_provider", keptBinding.Provider).
			Msg("callback for already-linked user, existing binding kept")
		if err := s.auditor.Log(core.AuditEntry{
			ID:        reqID,
			Time:      time.Now(),
			Action:    core.AuditLinkSkipped,
			Provider:  provider,
			SubjectID: subjectID,
			UserID:    user.ID,
			Success:   true,
			Error:     fmt.Sprintf("existing binding %s/%s kept", keptBinding.Provider, keptBinding.SubjectID),
		}); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for skipped link")
		}
	}
	if provisioned {
		logger.Info().Str("user_id", user.ID).Msg("external user provisioned")
		if err := s.auditor.Log(core.AuditEntry{
			ID:          reqID,
			Time:        time.Now(),
			Action:      core.AuditUserProvisioned,
			Provider:    provider,
			SubjectID:   subjectID,
			UserID:      user.ID,
			DisplayName: user.UserName,
			Success:     true,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for provisioning")
		}
	}

	return &CallbackResponse{
		Session:     session,
		Redirect:    redirect,
		Provisioned: provisioned,
	}, nil
}

// integrate resolves or provisions the user and applies claim and login
// changes, all within one repository Tx. The returned binding is non-nil
// when the user already had a different one that was kept.
func (s *Service) integrate(ctx context.Context, provider, subjectID string, batch []core.Claim) (*core.LocalUser, bool, *core.LoginBinding, error) {
	tx, err := s.users.Begin(ctx)
	if err != nil {
		return nil, false, nil, fmt.Errorf("%w: begin: %v", core.ErrStorageUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	provisioned := false
	user, err := ResolveUser(ctx, tx, provider, subjectID)
	if errors.Is(err, core.ErrUserNotFound) {
		user = &core.LocalUser{
			ID:            uuid.NewString(),
			SecurityStamp: uuid.NewString(),
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return nil, false, nil, fmt.Errorf("%w: provisioning user: %v", core.ErrStorageUnavailable, err)
		}
		provisioned = true
	} else if err != nil {
		return nil, false, nil, err
	}

	existing, err := tx.Claims(ctx, user.ID)
	if err != nil {
		return nil, false, nil, fmt.Errorf("%w: reading claims for %s: %v", core.ErrStorageUnavailable, user.ID, err)
	}
	cs := PlanReconcile(existing, user.ID, provider, batch)
	if err := ApplyChangeSet(ctx, tx, user.ID, cs); err != nil {
		return nil, false, nil, err
	}

	// display name: first name claim, else the stable id
	displayName := user.ID
	for _, c := range batch {
		if c.Type == core.ClaimName {
			displayName = c.Value
			break
		}
	}
	if user.UserName != displayName {
		user.UserName = displayName
		user.NormalizedUserName = displayName
		if err := tx.UpdateUser(ctx, user); err != nil {
			return nil, false, nil, fmt.Errorf("%w: updating user %s: %v", core.ErrStorageUnavailable, user.ID, err)
		}
	}

	keptBinding, err := EnsureLinked(ctx, tx, user, provider, subjectID, user.UserName)
	if err != nil {
		return nil, false, nil, err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, core.ErrDuplicateLogin) {
			return nil, false, nil, fmt.Errorf("%w: login %s/%s", core.ErrConcurrentProvisioning, provider, subjectID)
		}
		return nil, false, nil, fmt.Errorf("%w: commit: %v", core.ErrStorageUnavailable, err)
	}
	committed = true

	return user, provisioned, keptBinding, nil
}

// buildSession assembles the session descriptor, copying forward the upstream
// session id claim (single sign-out correlation) and any provider-issued
// identity token. Both are opaque to this service.
func buildSession(user *core.LocalUser, result *core.ExternalAuthResult) core.SessionDescriptor {
	session := core.SessionDescriptor{
		UserID:      user.ID,
		DisplayName: user.UserName,
		Provider:    result.Provider,
		Properties:  map[string]string{},
	}

	for _, raw := range result.Claims {
		if raw.Type == core.ClaimSessionID {
			session.AdditionalClaims = append(session.AdditionalClaims, core.Claim{
				Type:   core.ClaimSessionID,
				Value:  raw.Value,
				Issuer: result.Provider,
			})
			break
		}
	}

	if idToken, ok := result.Tokens[core.TokenIDToken]; ok && idToken != "" {
		session.Properties[core.TokenIDToken] = idToken
	}

	return session
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, core.ErrConcurrentProvisioning):
		return httpError(http.StatusConflict, err)
	case errors.Is(err, core.ErrStorageUnavailable):
		return httpError(http.StatusServiceUnavailable, err)
	default:
		return httpError(http.StatusInternalServerError, err)
	}
}
