// Package httpstub is a minimal Gin router exposing API Core over HTTP. The
// HTTP surface itself is out of scope (spec.md §1); this mirrors the
// teacher's cmd/tarsy/main.go pattern of a bare gin.Default() router with
// gin.H response maps, not a full framework-backed REST layer, so it serves
// as a thin reference transport for exercising apicore.Core end to end.
package httpstub

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/raworc/raworc/pkg/apicore"
	"github.com/raworc/raworc/pkg/models"
)

// New builds a gin.Engine wiring every route to core. mode is passed to
// gin.SetMode (e.g. "release" in production, "debug" in development), same
// env-driven knob the teacher exposes as GIN_MODE.
func New(core *apicore.Core, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.Default()

	r.GET("/health", handleHealth(core))

	agents := r.Group("/v1/agents")
	agents.POST("", handleCreateAgent(core))
	agents.GET("", handleListAgents(core))
	agents.GET("/:name", handleGetAgent(core))
	agents.PATCH("/:name", handleUpdateAgent(core))
	agents.DELETE("/:name", handleDeleteAgent(core))
	agents.POST("/:name/sleep", handleSleep(core))
	agents.POST("/:name/wake", handleWake(core))
	agents.POST("/:name/remix", handleRemix(core))
	agents.POST("/:name/publish", handlePublish(core))
	agents.POST("/:name/unpublish", handleUnpublish(core))
	agents.POST("/:name/snapshot", handleSnapshot(core))
	agents.GET("/:name/context", handleGetContext(core))
	agents.POST("/:name/context/clear", handleContextClear(core))
	agents.POST("/:name/context/compact", handleContextCompact(core))
	agents.GET("/:name/files", handleListFiles(core))
	agents.GET("/:name/files/content", handleReadFile(core))
	agents.POST("/:name/tasks", handleCreateTask(core))
	agents.GET("/:name/tasks", handleListTasks(core))

	tasks := r.Group("/v1/tasks")
	tasks.GET("/:id", handleGetTask(core))
	tasks.POST("/:id/cancel", handleCancelTask(core))

	return r
}

func handleHealth(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := core.SystemHealth(c.Request.Context())
		status := http.StatusOK
		if !h.Healthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":            healthLabel(h.Healthy()),
			"store_reachable":   h.StoreReachable,
			"reconciler_age_ms": h.ReconcilerAgeMS,
			"agent_errors":      h.AgentErrors,
		})
	}
}

func healthLabel(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}

// statusFor maps the §7 error kind taxonomy to an HTTP status class. The
// taxonomy itself lives in apicore; this is the one place a status code is
// assigned, matching spec.md §6.3's note that status assignment belongs to
// the (out-of-scope) transport layer.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindValidation:
		return http.StatusBadRequest
	case models.ErrorKindConflict:
		return http.StatusConflict
	case models.ErrorKindNotFound:
		return http.StatusNotFound
	case models.ErrorKindTool, models.ErrorKindProvider, models.ErrorKindEngine:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	kind := apicore.KindOf(err)
	c.JSON(statusFor(kind), models.ErrorBody{Message: err.Error(), Kind: kind})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

// requireOperator resolves the bearer token and aborts the request with 401
// if it does not resolve to an operator. Handlers that need the caller's
// identity call this first.
func requireOperator(c *gin.Context, core *apicore.Core) (apicore.OperatorView, bool) {
	op, err := core.Authenticate(c.Request.Context(), bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorBody{Message: "authentication required", Kind: models.ErrorKindValidation})
		return apicore.OperatorView{}, false
	}
	return op, true
}
