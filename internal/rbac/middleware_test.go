package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"realty-crm/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(role string, mw gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u", role))
		}
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveAs(RoleAdmin, RequireAnyRole(RoleViewer)); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireDialer_ViewerForbidden(t *testing.T) {
	if code := serveAs(RoleViewer, RequireDialer()); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serveAs(RoleAgent, RequireDialer()); code != http.StatusOK {
		t.Fatalf("expected 200 for agent, got %d", code)
	}
	if code := serveAs(RoleAdmin, RequireDialer()); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
	if code := serveAs("", RequireDialer()); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without role, got %d", code)
	}
}

func TestCanDial(t *testing.T) {
	for role, want := range map[string]bool{RoleAdmin: true, RoleAgent: true, RoleViewer: false, "": false} {
		if got := CanDial(role); got != want {
			t.Fatalf("CanDial(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestRequireAnyRole_MissingRole(t *testing.T) {
	if code := serveAs("", RequireAnyRole(RoleAgent)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
