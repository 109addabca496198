package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

// VerifyURL is the siteverify endpoint; tests point it at a local server.
var VerifyURL = "https://hcaptcha.com/siteverify"

var (
	ErrMissingToken = errors.New("hcaptcha: no token in form")
	ErrNoSecret     = errors.New("hcaptcha: HCAPTCHA_SECRET is not set")
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Enabled reports whether the admin login form asks for a captcha.
func Enabled() bool {
	return env.GetEnvBool("HCAPTCHA_ENABLED", false) && env.GetEnv("HCAPTCHA_SECRET", "") != ""
}

// SiteKey is rendered into the login form.
func SiteKey() string {
	return env.GetEnv("HCAPTCHA_SITEKEY", "")
}

// Verify checks a widget token with hCaptcha. remoteIP is optional and
// only passed along as a hint.
func Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrMissingToken
	}
	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return ErrNoSecret
	}

	form := url.Values{"secret": {secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hcaptcha: siteverify request: %w", err)
	}
	defer resp.Body.Close()

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("hcaptcha: decode siteverify response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("hcaptcha: rejected (%s)", strings.Join(out.ErrorCodes, ", "))
	}
	return nil
}
