package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, ErrorResponse) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondError(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondError(t *testing.T) {
	notFound := NewAppError("offerNotFound", "Job offer not found", http.StatusNotFound)

	code, body := respond(t, notFound)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "offerNotFound", body.Code)
	assert.Empty(t, body.Details)

	code, body = respond(t, fmt.Errorf("accept: %w", notFound))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "accept: offerNotFound: Job offer not found", body.Details)

	code, body = respond(t, InvalidInput("amount %d is too small", 0))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalidInput", body.Code)

	code, body = respond(t, errors.New("server selection timeout"))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "dependencyFailure", body.Code)
	assert.NotContains(t, body.Details, "timeout")
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("t1", RoleTechnician, time.Minute)
	require.NoError(t, err)

	sub, role, err := ExtractIdentityFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "t1", sub)
	assert.Equal(t, RoleTechnician, role)

	expired, err := GenerateToken("t1", RoleTechnician, -time.Minute)
	require.NoError(t, err)
	_, _, err = ExtractIdentityFromToken(expired)
	assert.Error(t, err)

	assert.Len(t, HashToken(tok), 64)
}
