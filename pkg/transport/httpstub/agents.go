package httpstub

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raworc/raworc/pkg/apicore"
	"github.com/raworc/raworc/pkg/models"
)

type createAgentRequest struct {
	Name               string         `json:"name" binding:"required"`
	Description        string         `json:"description"`
	IdleTimeoutSeconds int            `json:"idle_timeout_s"`
	BusyTimeoutSeconds int            `json:"busy_timeout_s"`
	Tags               []string       `json:"tags"`
	Metadata           map[string]any `json:"metadata"`
}

func handleCreateAgent(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := requireOperator(c, core)
		if !ok {
			return
		}
		var req createAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorBody{Message: err.Error(), Kind: models.ErrorKindValidation})
			return
		}
		v, err := core.CreateAgent(c.Request.Context(), apicore.CreateAgentSpec{
			Name: req.Name, Description: req.Description, CreatedBy: op.Username,
			IdleTimeoutSeconds: req.IdleTimeoutSeconds, BusyTimeoutSeconds: req.BusyTimeoutSeconds,
			Tags: req.Tags, Metadata: req.Metadata,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func handleListAgents(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := apicore.AgentFilters{
			Query:  c.Query("q"),
			State:  models.AgentState(c.Query("state")),
			Limit:  queryInt(c, "limit", 50),
			Offset: queryInt(c, "offset", 0),
		}
		if tags := c.QueryArray("tag"); len(tags) > 0 {
			filters.Tags = tags
		}
		views, total, err := core.ListAgents(c.Request.Context(), filters)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agents": views, "total": total})
	}
}

func handleGetAgent(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := core.GetAgent(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

type updateAgentRequest struct {
	Description        *string        `json:"description"`
	IdleTimeoutSeconds  *int           `json:"idle_timeout_s"`
	BusyTimeoutSeconds  *int           `json:"busy_timeout_s"`
	Tags               []string       `json:"tags"`
	Metadata           map[string]any `json:"metadata"`
}

func handleUpdateAgent(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorBody{Message: err.Error(), Kind: models.ErrorKindValidation})
			return
		}
		v, err := core.UpdateAgent(c.Request.Context(), c.Param("name"), apicore.AgentPatch{
			Description: req.Description, IdleTimeoutSeconds: req.IdleTimeoutSeconds,
			BusyTimeoutSeconds: req.BusyTimeoutSeconds, Tags: req.Tags, Metadata: req.Metadata,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func handleDeleteAgent(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.DeleteAgent(c.Request.Context(), c.Param("name")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSleep(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DelaySeconds int `json:"delay_s"`
		}
		_ = c.ShouldBindJSON(&req)
		if err := core.Sleep(c.Request.Context(), c.Param("name"), req.DelaySeconds); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleWake(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.Wake(c.Request.Context(), c.Param("name")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleRemix(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := requireOperator(c, core)
		if !ok {
			return
		}
		var req struct {
			Dst         string                     `json:"dst" binding:"required"`
			Permissions models.PublishPermissions  `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorBody{Message: err.Error(), Kind: models.ErrorKindValidation})
			return
		}
		v, err := core.Remix(c.Request.Context(), c.Param("name"), req.Dst, req.Permissions, op.Username)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func handlePublish(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var perms models.PublishPermissions
		_ = c.ShouldBindJSON(&perms)
		if err := core.Publish(c.Request.Context(), c.Param("name"), perms); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleUnpublish(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.Unpublish(c.Request.Context(), c.Param("name")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSnapshot(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		trigger := models.SnapshotTrigger(c.DefaultQuery("trigger", string(models.SnapshotTriggerManual)))
		if err := core.Snapshot(c.Request.Context(), c.Param("name"), trigger); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleGetContext(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := core.Context(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func handleContextClear(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.ContextClear(c.Request.Context(), c.Param("name")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleContextCompact(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.ContextCompact(c.Request.Context(), c.Param("name")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleListFiles(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := core.ListFiles(c.Request.Context(), c.Param("name"), c.DefaultQuery("dir", ""),
			queryInt(c, "offset", 0), queryInt(c, "limit", 100))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

func handleReadFile(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		if path == "" {
			c.JSON(http.StatusBadRequest, models.ErrorBody{Message: "path is required", Kind: models.ErrorKindValidation})
			return
		}
		data, err := core.ReadFile(c.Request.Context(), c.Param("name"), path)
		if err != nil {
			fail(c, err)
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", data)
	}
}
