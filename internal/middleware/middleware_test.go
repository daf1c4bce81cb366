package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
)

type stubUsers map[uint64]*models.User

func (s stubUsers) FindByID(_ context.Context, id uint64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newResolver(users stubUsers) (*auth.Resolver, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return auth.NewResolver(tokens, auth.NewMemoryRevocationStore(10, time.Hour), users), tokens
}

func TestTokenFromRequest_Precedence(t *testing.T) {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/login", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(constants.SessionTokenKey, "from-session")
		require.NoError(t, s.Save())
	})
	r.GET("/token", func(c *gin.Context) {
		c.String(http.StatusOK, TokenFromRequest(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	get := func(header string, withCookie bool) string {
		req := httptest.NewRequest(http.MethodGet, "/token?token=from-query", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if withCookie {
			for _, c := range cookies {
				req.AddCookie(c)
			}
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Body.String()
	}

	assert.Equal(t, "from-header", get("Bearer from-header", true))
	assert.Equal(t, "from-session", get("", true))
	assert.Equal(t, "from-session", get("Basic abc", true))
	assert.Equal(t, "from-query", get("", false))
}

func TestTokenFromRequest_WithoutSessions(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?token=abc", nil)

	assert.Equal(t, "abc", TokenFromRequest(c))
}

func TestRequireAuth(t *testing.T) {
	alice := &models.User{ID: 1, Name: "alice", Role: models.RoleMember}
	resolver, tokens := newResolver(stubUsers{1: alice})
	log, _ := test.NewNullLogger()

	r := gin.New()
	r.GET("/me", RequireAuth(resolver, log), func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		userID, ok := GetUserID(c)
		require.True(t, ok)
		_, ok = GetClaims(c)
		require.True(t, ok)
		user, ok := GetUser(c)
		require.True(t, ok)
		assert.Equal(t, actor.ID, userID)
		c.String(http.StatusOK, user.Name)
	})

	token, _, err := tokens.IssueSession(alice)
	require.NoError(t, err)
	ghostToken, _, err := tokens.IssueSession(&models.User{ID: 2, Role: models.RoleMember})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "alice"},
		{"missing", "", http.StatusUnauthorized, "Authentication required"},
		{"malformed", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"deleted user", "Bearer " + ghostToken, http.StatusUnauthorized, "User no longer exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestRequireAuth_RevocationStoreDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := auth.NewRedisClient(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer client.Close()
	mr.Close()

	alice := &models.User{ID: 1, Name: "alice", Role: models.RoleMember}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resolver := auth.NewResolver(tokens, auth.NewRedisRevocationStore(client, ""), stubUsers{1: alice})
	log, _ := test.NewNullLogger()

	r := gin.New()
	r.GET("/me", RequireAuth(resolver, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, _, err := tokens.IssueSession(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Service temporarily unavailable")
}

func TestRequireAdmin(t *testing.T) {
	handler := func(actor *authz.Actor) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if actor != nil {
				c.Set(constants.ContextKeyActor, *actor)
			}
		}, RequireAdmin(), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		return w
	}

	assert.Equal(t, http.StatusNoContent, handler(&authz.Actor{ID: 1, Role: models.RoleAdmin}).Code)
	assert.Equal(t, http.StatusForbidden, handler(&authz.Actor{ID: 2, Role: models.RoleMember}).Code)
	assert.Equal(t, http.StatusUnauthorized, handler(nil).Code)
}

func TestRequireIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/tasks/:id", RequireIDParam("id", "task"), func(c *gin.Context) {
		assert.Equal(t, uint64(42), GetIDParam(c, "id"))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/42", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	for _, bad := range []string{"abc", "0", "-1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid task ID")
	}
}

func TestOperationTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/slow", OperationTimeout(10*time.Millisecond), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, time.Second)

		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, uint64(7))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, uint64(7), entries[0].Data["user_id"])
	assert.Equal(t, "/ok", entries[0].Data["path"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, http.StatusNotFound, entries[1].Data["status"])
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	r := gin.New()
	r.Use(metrics.Instrument())
	r.GET("/tasks/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", metrics.Handler())

	for _, path := range []string{"/tasks/1", "/tasks/2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/tasks/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	metrics.ObserveDecision(authz.KindTask, authz.ActionDelete, false)
	metrics.ObserveDecision(authz.KindTask, authz.ActionDelete, true)
	metrics.ObserveDecision(authz.KindTask, authz.ActionDelete, false)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.AuthzDecisionsTotal.WithLabelValues("task", "delete", "deny")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "teamtask_authz_decisions_total"))
}
