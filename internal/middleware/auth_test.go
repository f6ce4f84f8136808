package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentalbook/dentalbook-api/internal/models"
	"github.com/dentalbook/dentalbook-api/internal/utils"
)

func newTestRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{Protect()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		p := PrincipalFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role, "dentistId": p.DentistID})
	})
	r.GET("/protected", chain...)
	return r
}

func request(t *testing.T, r *gin.Engine, authHeader, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtect_MissingToken(t *testing.T) {
	w := request(t, newTestRouter(), "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestProtect_GarbageToken(t *testing.T) {
	w := request(t, newTestRouter(), "Bearer garbage", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestProtect_BearerToken(t *testing.T) {
	token, err := utils.GenerateJWT("u1", models.RoleDentist, "d1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w := request(t, newTestRouter(), "Bearer "+token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["id"] != "u1" || body["role"] != models.RoleDentist || body["dentistId"] != "d1" {
		t.Errorf("principal = %v, want u1/dentist/d1", body)
	}
}

func TestProtect_CookieFallback(t *testing.T) {
	token, err := utils.GenerateJWT("u2", models.RoleUser, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w := request(t, newTestRouter(), "", token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 via cookie", w.Code)
	}
}

func TestAuthorize_RoleGate(t *testing.T) {
	r := newTestRouter(Authorize(models.RoleAdmin, models.RoleDentist))

	cases := []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleDentist, http.StatusOK},
		{models.RoleUser, http.StatusForbidden},
		{models.RoleBanned, http.StatusForbidden},
	}
	for _, tc := range cases {
		token, err := utils.GenerateJWT("u3", tc.role, "", time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		w := request(t, r, "Bearer "+token, "")
		if w.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.want)
		}
	}
}
