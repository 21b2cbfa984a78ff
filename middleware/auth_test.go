package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"repairhub/testutil"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, h gin.HandlerFunc, role, token string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h, RequireRole(role), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTAuthMiddleware_Roles(t *testing.T) {
	h := testutil.NewHarness()
	h.AddTechnician("t1", 4, "Plumbing")
	auth := JWTAuthMiddleware(h.Technicians, nil)

	customer, err := utils.GenerateToken("c1", utils.RoleCustomer, time.Hour)
	require.NoError(t, err)
	tech, err := utils.GenerateToken("t1", utils.RoleTechnician, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(t, auth, utils.RoleCustomer, ""))
	assert.Equal(t, http.StatusOK, serve(t, auth, utils.RoleCustomer, customer))
	assert.Equal(t, http.StatusForbidden, serve(t, auth, utils.RoleTechnician, customer))
	assert.Equal(t, http.StatusOK, serve(t, auth, utils.RoleTechnician, tech))
}

func TestJWTAuthMiddleware_CacheFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	h := testutil.NewHarness()
	h.AddTechnician("t1", 4, "Plumbing")
	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer unreachable.Close()

	tech, err := utils.GenerateToken("t1", utils.RoleTechnician, time.Hour)
	require.NoError(t, err)

	// The directory still vouches for the technician when Redis is down.
	code := serve(t, JWTAuthMiddleware(h.Technicians, unreachable), utils.RoleTechnician, tech)
	assert.Equal(t, http.StatusOK, code)

	assert.Equal(t, 1, logs.FilterMessage("Auth cache unavailable, falling back to DB lookup").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to cache technician auth").Len())
}
