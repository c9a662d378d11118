package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

func TestJWT(t *testing.T) {
	service.InitJWT("middleware-secret", time.Hour)
	token, _ := service.GenerateJWT("owner-7")

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/me", JWT(), func(c *gin.Context) {
		owner, _ := OwnerID(c)
		c.String(http.StatusOK, owner)
	})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.code {
				t.Fatalf("expected %d got %d", tc.code, w.Code)
			}
			if tc.code == http.StatusOK && w.Body.String() != "owner-7" {
				t.Fatalf("unexpected owner %q", w.Body.String())
			}
			if tc.code == http.StatusUnauthorized {
				var body ErrorBody
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatal(err)
				}
				if body.Success || body.CorrelationID == "" {
					t.Fatalf("unexpected error envelope %+v", body)
				}
			}
		})
	}
}

func TestRequestLogger_EchoesCorrelationID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(CorrelationHeader); got != "abc-123" {
		t.Fatalf("expected echoed correlation id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(CorrelationHeader) == "" {
		t.Fatal("expected a generated correlation id")
	}
}
