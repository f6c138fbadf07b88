package httpstub

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/raworc/raworc/pkg/models"
)

func TestStatusFor_MapsEveryKind(t *testing.T) {
	cases := map[models.ErrorKind]int{
		models.ErrorKindValidation: http.StatusBadRequest,
		models.ErrorKindConflict:   http.StatusConflict,
		models.ErrorKindNotFound:   http.StatusNotFound,
		models.ErrorKindTool:       http.StatusBadGateway,
		models.ErrorKindProvider:   http.StatusBadGateway,
		models.ErrorKindEngine:     http.StatusBadGateway,
		models.ErrorKindInternal:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), "kind=%s", kind)
	}
}

func TestQueryInt_FallsBackOnMissingOrInvalid(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(query string) *gin.Context {
		req := httptest.NewRequest(http.MethodGet, "/x?"+query, nil)
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = req
		return c
	}

	assert.Equal(t, 50, queryInt(newCtx(""), "limit", 50))
	assert.Equal(t, 50, queryInt(newCtx("limit=not-a-number"), "limit", 50))
	assert.Equal(t, 10, queryInt(newCtx("limit=10"), "limit", 50))
}

func TestBearerToken_ParsesAuthorizationHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	assert.Empty(t, bearerToken(c))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(c))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, bearerToken(c))
}
