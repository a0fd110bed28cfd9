package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestSanitizeRequestID(t *testing.T) {
	cases := map[string]string{
		" req-123 ":             "req-123",
		"trace:abc_1.2":         "trace:abc_1.2",
		"bad id":                "",
		"<script>":              "",
		strings.Repeat("a", 65): "",
	}
	for raw, want := range cases {
		if got := sanitizeRequestID(raw); got != want {
			t.Fatalf("sanitize %q: want %q got %q", raw, want, got)
		}
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin: %s", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected max age: %s", w.Header().Get("Access-Control-Max-Age"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), constants.HeaderMemberID) {
		t.Fatalf("default headers should allow member id, got %s", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func setupIdentityTestRepo(t *testing.T) (repository.MemberRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:router_identity_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return repository.NewMemberRepository(db), db
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestMemberIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, db := setupIdentityTestRepo(t)
	active := models.Member{ReferralCode: "ACTIVE", IsActive: true}
	inactive := models.Member{ReferralCode: "INACTIVE", IsActive: true}
	if err := db.Create(&active).Error; err != nil {
		t.Fatalf("create member failed: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("create member failed: %v", err)
	}
	if err := db.Model(&inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate member failed: %v", err)
	}

	r := gin.New()
	r.Use(MemberIdentityMiddleware(repo))
	r.GET("/me", func(c *gin.Context) {
		value, _ := c.Get(handlershared.ContextKeyMemberID)
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "member_id": value})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: response.CodeUnauthorized},
		{name: "invalid", header: "abc", want: response.CodeBadRequest},
		{name: "unknown", header: "9999", want: response.CodeUnauthorized},
		{name: "inactive", header: strconv.FormatUint(uint64(inactive.ID), 10), want: response.CodeForbidden},
		{name: "active", header: strconv.FormatUint(uint64(active.ID), 10), want: response.CodeOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(constants.HeaderMemberID, tc.header)
			}
			r.ServeHTTP(w, req)
			if got := decodeStatusCode(t, w); got != tc.want {
				t.Fatalf("status_code want %d got %d", tc.want, got)
			}
		})
	}
}

func TestAdminIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AdminIdentityMiddleware())
	r.GET("/admin/ping", func(c *gin.Context) {
		adminID, ok := handlershared.GetAdminID(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "admin_id": adminID})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	if got := decodeStatusCode(t, w); got != response.CodeUnauthorized {
		t.Fatalf("missing header want 401 got %d", got)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(constants.HeaderAdminID, "0")
	r.ServeHTTP(w, req)
	if got := decodeStatusCode(t, w); got != response.CodeBadRequest {
		t.Fatalf("zero admin id want 400 got %d", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(constants.HeaderAdminID, "12")
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"admin_id":12`) {
		t.Fatalf("admin id should be stored in context, got %s", w.Body.String())
	}
}

func TestAdminRouteCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/admin/members/:id", func(c *gin.Context) {})
	r.PUT("/api/v1/admin/members/:id/sponsor", func(c *gin.Context) {})
	r.GET("/api/v1/me", func(c *gin.Context) {})

	items := buildAdminRouteCatalog(r)
	if len(items) != 2 {
		t.Fatalf("want 2 admin routes got %+v", items)
	}
	if items[0].Object != "/admin/members/:param" || items[0].Module != "members" {
		t.Fatalf("unexpected catalog item: %+v", items[0])
	}
	if items[1].Object != "/admin/members/:param/sponsor" || items[1].Method != http.MethodPut {
		t.Fatalf("unexpected catalog item: %+v", items[1])
	}
}
