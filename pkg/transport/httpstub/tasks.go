package httpstub

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raworc/raworc/pkg/apicore"
	"github.com/raworc/raworc/pkg/models"
)

func handleCreateTask(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TaskInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorBody{Message: err.Error(), Kind: models.ErrorKindValidation})
			return
		}
		v, err := core.CreateTask(c.Request.Context(), c.Param("name"), req.Content)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func handleListTasks(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := core.ListTasks(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": views})
	}
}

func handleGetTask(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := core.GetTask(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func handleCancelTask(core *apicore.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := core.CancelTask(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
