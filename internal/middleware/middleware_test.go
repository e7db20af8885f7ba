package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/apexlabs/ntamock-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d refused within burst", i)
		}
	}
	ok, wait := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request allowed")
	}
	if wait <= 0 || wait > 30*time.Second {
		t.Errorf("wait = %v, want (0, 30s]", wait)
	}
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("other client throttled")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("token not refilled after half the interval")
	}

	now = now.Add(10 * time.Minute)
	rl.evictIdle()
	if len(rl.buckets) != 0 {
		t.Errorf("buckets = %d after idle eviction, want 0", len(rl.buckets))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
		if i == 1 && w.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("x", 4096)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		path     string
		accept   string
		wantBr   bool
		wantBody string
	}{
		{"/big", "gzip, br", true, big},
		{"/big", "gzip", false, big},
		{"/small", "br", false, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", tt.accept)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			gotBr := w.Header().Get("Content-Encoding") == "br"
			if gotBr != tt.wantBr {
				t.Fatalf("compressed = %v, want %v", gotBr, tt.wantBr)
			}
			var body io.Reader = w.Body
			if gotBr {
				body = brotli.NewReader(w.Body)
			}
			got, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if string(got) != tt.wantBody {
				t.Errorf("body length = %d, want %d", len(got), len(tt.wantBody))
			}
		})
	}
}

type stubValidator struct {
	claims *service.Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*service.Claims, error) { return v.claims, v.err }

func TestRequireToken(t *testing.T) {
	student := &service.Claims{TokenType: service.TokenTypeStudent}
	student.Subject = "s1"

	tests := []struct {
		name     string
		mw       gin.HandlerFunc
		header   string
		query    string
		wantCode int
	}{
		{"missing token", RequireStudentJWT(stubValidator{claims: student}), "", "", http.StatusUnauthorized},
		{"valid student", RequireStudentJWT(stubValidator{claims: student}), "Bearer abc", "", http.StatusOK},
		{"query ignored for REST", RequireStudentJWT(stubValidator{claims: student}), "", "abc", http.StatusUnauthorized},
		{"query accepted for ws", RequireStudentWSAuth(stubValidator{claims: student}), "", "abc", http.StatusOK},
		{"student on admin route", RequireAdminJWT(stubValidator{claims: student}), "Bearer abc", "", http.StatusForbidden},
		{"expired", RequireStudentJWT(stubValidator{err: jwt.ErrTokenExpired}), "Bearer abc", "", http.StatusUnauthorized},
		{"invalid", RequireStudentJWT(stubValidator{err: errors.New("bad")}), "Bearer abc", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", tt.mw, func(c *gin.Context) {
				if SubjectID(c) != "s1" {
					t.Errorf("SubjectID = %q", SubjectID(c))
				}
				c.Status(http.StatusOK)
			})
			url := "/"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
