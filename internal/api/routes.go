package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/v1/info"

	ChallengeRoute = "/v1/external/challenge"
	CallbackRoute  = "/v1/external/callback"

	SessionRoute = "/v1/session"
	LogoutRoute  = "/v1/logout"

	AdminParent      = "/v1/admin/"
	ListAuditsRoute  = AdminParent + "audit/entries"
	TaskParent       = AdminParent + "tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
