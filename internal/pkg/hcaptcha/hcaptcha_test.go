package hcaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

func TestVerify(t *testing.T) {
	var remoteIP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		remoteIP = r.Form.Get("remoteip")
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("response") == "good" && r.Form.Get("secret") == "sec" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	old := VerifyURL
	VerifyURL = srv.URL
	env.Env = map[string]string{"HCAPTCHA_SECRET": "sec", "HCAPTCHA_ENABLED": "true"}
	t.Cleanup(func() {
		VerifyURL = old
		env.Env = nil
	})
	ctx := context.Background()

	assert.True(t, Enabled())
	assert.NoError(t, Verify(ctx, "good", "203.0.113.7"))
	assert.Equal(t, "203.0.113.7", remoteIP)
	assert.ErrorContains(t, Verify(ctx, "bad", ""), "invalid-input-response")
	assert.ErrorIs(t, Verify(ctx, "", ""), ErrMissingToken)
}

func TestVerify_NoSecret(t *testing.T) {
	env.Env = map[string]string{"HCAPTCHA_ENABLED": "true"}
	t.Cleanup(func() { env.Env = nil })

	assert.False(t, Enabled())
	assert.ErrorIs(t, Verify(context.Background(), "token", ""), ErrNoSecret)
}
