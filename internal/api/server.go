package api

import (
	"net/http"

	"github.com/latsic/idbridge/internal/api/middleware"
	"github.com/latsic/idbridge/internal/audit"
	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/core"
	"github.com/latsic/idbridge/internal/federation"
	"github.com/latsic/idbridge/internal/state"
	"github.com/latsic/idbridge/internal/tasks"
	"github.com/latsic/idbridge/internal/upstream"
)

type Server struct {
	federation  *federation.Service
	sessions    core.SessionIssuer
	providers   map[string]upstream.Provider
	challenges  state.Store
	interaction core.AuthorizationContextService
	taskManager *tasks.Manager
	auditor     core.Auditor
	auditReader audit.Reader
	session     config.SessionConfig
}

func NewServer(
	federationSvc *federation.Service,
	sessions core.SessionIssuer,
	providers map[string]upstream.Provider,
	challenges state.Store,
	interaction core.AuthorizationContextService,
	taskManager *tasks.Manager,
	auditor core.Auditor,
	auditReader audit.Reader,
	sessionCfg config.SessionConfig,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}

	return &Server{
		federation:  federationSvc,
		sessions:    sessions,
		providers:   providers,
		challenges:  challenges,
		interaction: interaction,
		taskManager: taskManager,
		auditor:     auditor,
		auditReader: auditReader,
		session:     sessionCfg,
	}
}

func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// external login roundtrip
	mux.HandleFunc("GET "+ChallengeRoute, s.handleChallenge)
	mux.HandleFunc("GET "+CallbackRoute, s.handleCallback)

	// local session
	mux.HandleFunc("GET "+SessionRoute, s.handleSession)
	mux.HandleFunc("POST "+LogoutRoute, s.handleLogout)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(signingKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
