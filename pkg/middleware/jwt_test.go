package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
)

const testSecret = "test-secret-key-for-jwt-middleware"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestManager() *auth.Manager {
	return auth.NewManager(auth.Config{Secret: testSecret, Issuer: "test"})
}

func setupTestRouter(m *auth.Manager, kinds ...auth.Kind) *gin.Engine {
	router := gin.New()
	router.GET("/protected", RequireToken(m, kinds...), func(c *gin.Context) {
		subject, _ := GetSubject(c)
		role, _ := GetRole(c)
		tenantID, _ := GetTenantID(c)
		table, _ := GetTableNumber(c)
		c.JSON(http.StatusOK, gin.H{
			"subject":   subject,
			"role":      role,
			"tenant_id": tenantID,
			"table":     table,
		})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireToken(t *testing.T) {
	m := newTestManager()
	chefToken, _ := m.IssueChefToken("rec-1", "gordon", "cafeluna")
	adminToken, _ := m.IssueAdminToken("adm-1", "cafeluna_sam", "cafeluna")
	guestToken, _ := m.IssueGuestToken("cafeluna", 4)

	t.Run("valid token with bearer prefix", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindChef), "Bearer "+chefToken)
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("valid token without bearer prefix", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindChef), chefToken)
		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("missing authorization header", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindChef), "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("empty token after Bearer", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindChef), "Bearer ")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindChef), "Bearer abc.def.ghi")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		other := auth.NewManager(auth.Config{Secret: "other", Issuer: "test"})
		forged, _ := other.IssueChefToken("rec-1", "gordon", "cafeluna")
		w := doRequest(setupTestRouter(m, auth.KindChef), forged)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("role mismatch is forbidden", func(t *testing.T) {
		w := doRequest(setupTestRouter(m, auth.KindAdmin), chefToken)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})

	t.Run("any of several kinds", func(t *testing.T) {
		router := setupTestRouter(m, auth.KindAdmin, auth.KindGuest)
		if w := doRequest(router, adminToken); w.Code != http.StatusOK {
			t.Errorf("admin: expected status %d, got %d", http.StatusOK, w.Code)
		}
		if w := doRequest(router, guestToken); w.Code != http.StatusOK {
			t.Errorf("guest: expected status %d, got %d", http.StatusOK, w.Code)
		}
		if w := doRequest(router, chefToken); w.Code != http.StatusForbidden {
			t.Errorf("chef: expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})
}

func TestRequireToken_SetsContext(t *testing.T) {
	m := newTestManager()
	guestToken, _ := m.IssueGuestToken("cafeluna", 4)

	router := gin.New()
	router.GET("/protected", RequireToken(m, auth.KindGuest), func(c *gin.Context) {
		tenantID, ok := GetTenantID(c)
		if !ok || tenantID != "cafeluna" {
			t.Errorf("tenant = %q, %v", tenantID, ok)
		}
		table, ok := GetTableNumber(c)
		if !ok || table != 4 {
			t.Errorf("table = %d, %v", table, ok)
		}
		if _, ok := GetSubject(c); ok {
			t.Error("guest token must not carry a subject")
		}
		claims, ok := GetClaims(c)
		if !ok || claims.Role != auth.KindGuest {
			t.Errorf("claims = %+v", claims)
		}
		c.Status(http.StatusNoContent)
	})

	if w := doRequest(router, guestToken); w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

func TestGetHelpers_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := GetTenantID(c); ok {
		t.Error("expected no tenant")
	}
	if _, ok := GetTableNumber(c); ok {
		t.Error("expected no table")
	}
	if _, ok := GetClaims(c); ok {
		t.Error("expected no claims")
	}
}
