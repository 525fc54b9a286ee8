package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name       string
		configured [2]string
		user, pass string
		setHeader  bool
		want       int
	}{
		{"valid", [2]string{"admin", "secret"}, "admin", "secret", true, http.StatusNoContent},
		{"wrong password", [2]string{"admin", "secret"}, "admin", "nope", true, http.StatusUnauthorized},
		{"wrong user", [2]string{"admin", "secret"}, "root", "secret", true, http.StatusUnauthorized},
		{"no header", [2]string{"admin", "secret"}, "", "", false, http.StatusUnauthorized},
		{"not configured", [2]string{"", ""}, "", "", true, http.StatusUnauthorized},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/alerts/check", nil)
			if c.setHeader {
				req.SetBasicAuth(c.user, c.pass)
			}
			rr := httptest.NewRecorder()

			BasicAuth(c.configured[0], c.configured[1])(ok).ServeHTTP(rr, req)

			assert.Equal(t, c.want, rr.Code)
			if c.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Admin Area"`, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
