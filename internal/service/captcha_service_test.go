package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

func newCaptchaServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "top-secret", r.PostForm.Get("secret"))
		assert.Equal(t, "token-1", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCaptchaBypassedWithoutSecret(t *testing.T) {
	svc := NewCaptchaService(CaptchaConfig{}, nil, nil)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Verify(context.Background(), "", ""))
}

func TestCaptchaVerify(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		ok     bool
	}{
		"high score":     {http.StatusOK, `{"success":true,"score":0.9}`, true},
		"threshold":      {http.StatusOK, `{"success":true,"score":0.5}`, true},
		"v2 no score":    {http.StatusOK, `{"success":true}`, true},
		"low score":      {http.StatusOK, `{"success":true,"score":0.2}`, false},
		"unsuccessful":   {http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, false},
		"provider error": {http.StatusBadGateway, `oops`, false},
		"garbage":        {http.StatusOK, `not json`, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newCaptchaServer(t, tc.status, tc.body)
			svc := NewCaptchaService(CaptchaConfig{Secret: "top-secret", VerifyURL: srv.URL}, srv.Client(), nil)

			err := svc.Verify(context.Background(), "token-1", "10.0.0.1")
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrCaptchaFailed.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestCaptchaMissingTokenFails(t *testing.T) {
	svc := NewCaptchaService(CaptchaConfig{Secret: "top-secret", VerifyURL: "http://127.0.0.1:1"}, nil, nil)
	err := svc.Verify(context.Background(), "  ", "")
	assert.Equal(t, appErrors.ErrCaptchaFailed.Code, appErrors.FromError(err).Code)
}

func TestCaptchaTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	svc := NewCaptchaService(CaptchaConfig{Secret: "top-secret", VerifyURL: srv.URL, Timeout: 20 * time.Millisecond}, nil, nil)

	err := svc.Verify(context.Background(), "token-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCaptchaFailed.Code, appErrors.FromError(err).Code)
}
