package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handlershared "github.com/uplink-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/members/register", strings.NewReader(`{"sponsor_code":" Root01 "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("sponsor_code")(c)
	if key != "root01|1.2.3.4" {
		t.Fatalf("key want root01|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Root01") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestKeyByMember(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/me/checkout", nil)
	c.Request.RemoteAddr = "5.6.7.8:1234"
	if key := KeyByMember(c); key != "5.6.7.8" {
		t.Fatalf("anonymous key should fall back to ip, got %s", key)
	}
	c.Set(handlershared.ContextKeyMemberID, uint(42))
	if key := KeyByMember(c); key != "member:42" {
		t.Fatalf("member key want member:42 got %s", key)
	}
}

func TestNewRateLimitRule(t *testing.T) {
	rule := NewRateLimitRule("uplink:rate:checkout", 60, 20, 120, "error.checkout_too_many")
	if rule.WindowSeconds != 60 || rule.MaxRequests != 20 || rule.BlockSeconds != 120 || rule.MessageKey != "error.checkout_too_many" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitRuleDecide(t *testing.T) {
	rule := NewRateLimitRule("uplink:rate:withdraw", 60, 2, 300, "")
	if rule.messageKey() != "error.rate_limited" {
		t.Fatalf("empty message key should fall back, got %s", rule.messageKey())
	}
	if rule.scopedKey("member:1") != "uplink:rate:withdraw:member:1" {
		t.Fatalf("unexpected scoped key: %s", rule.scopedKey("member:1"))
	}

	cases := []struct {
		name    string
		result  interface{}
		limited bool
		wait    int
		wantErr bool
	}{
		{name: "within window", result: []interface{}{int64(2), int64(40)}},
		{name: "over limit", result: []interface{}{int64(3), int64(300)}, limited: true, wait: 300},
		{name: "blocked", result: []interface{}{int64(-1), int64(120)}, limited: true, wait: 120},
		{name: "missing ttl", result: []interface{}{int64(5), int64(-1)}, limited: true, wait: 60},
		{name: "malformed", result: "oops", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := rule.decide(tc.result)
			if (err != nil) != tc.wantErr {
				t.Fatalf("want error %v got %v", tc.wantErr, err)
			}
			if decision.Limited != tc.limited || decision.WaitSeconds != tc.wait {
				t.Fatalf("unexpected decision: %+v", decision)
			}
		})
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "numeric string", input: " 14 ", want: 14, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
		{name: "nil", input: nil, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
