package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func sessionEcho(t *testing.T) (*gin.Engine, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var got string
	router := gin.New()
	router.Use(Session())
	router.GET("/", func(c *gin.Context) {
		got = SessionIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return router, &got
}

func TestSessionFromHeader(t *testing.T) {
	router, got := sessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", "sess-header")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "sess-header" {
		t.Fatalf("expected sess-header, got %q", *got)
	}
}

func TestSessionFromCookie(t *testing.T) {
	router, got := sessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "sess-cookie"})
	router.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "sess-cookie" {
		t.Fatalf("expected sess-cookie, got %q", *got)
	}
}

func TestSessionHeaderWinsOverCookie(t *testing.T) {
	router, got := sessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Id", "sess-header")
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "sess-cookie"})
	router.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "sess-header" {
		t.Fatalf("expected sess-header, got %q", *got)
	}
}

func TestSessionAbsent(t *testing.T) {
	router, got := sessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "" {
		t.Fatalf("expected empty session, got %q", *got)
	}
}
