package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

const defaultCaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaConfig configures reCAPTCHA verification. An empty Secret disables the check.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	MinScore  float64
	Timeout   time.Duration
}

type captchaVerdict struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

// CaptchaService checks reCAPTCHA tokens submitted with public bookings.
type CaptchaService struct {
	client *http.Client
	logger *zap.Logger
	cfg    CaptchaConfig
}

// NewCaptchaService constructs a CaptchaService.
func NewCaptchaService(cfg CaptchaConfig, client *http.Client, logger *zap.Logger) *CaptchaService {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = defaultCaptchaVerifyURL
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptchaService{client: client, logger: logger, cfg: cfg}
}

// Enabled reports whether tokens are actually verified.
func (s *CaptchaService) Enabled() bool {
	return s != nil && s.cfg.Secret != ""
}

// Verify returns CAPTCHA_FAILED unless the provider accepts token with a score at or above the
// configured minimum. v2 responses carry no score and are treated as 0.5.
func (s *CaptchaService) Verify(ctx context.Context, token, remoteIP string) error {
	if !s.Enabled() {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return appErrors.Clone(appErrors.ErrCaptchaFailed, "captcha token is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	form := url.Values{"secret": {s.cfg.Secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build captcha request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("captcha verification unreachable", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrCaptchaFailed.Code, appErrors.ErrCaptchaFailed.Status, "captcha verification failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return appErrors.Wrap(fmt.Errorf("captcha provider returned status %d", resp.StatusCode), appErrors.ErrCaptchaFailed.Code, appErrors.ErrCaptchaFailed.Status, "captcha verification failed")
	}

	var verdict captchaVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCaptchaFailed.Code, appErrors.ErrCaptchaFailed.Status, "captcha verification failed")
	}

	score := 0.5
	if verdict.Score != nil {
		score = *verdict.Score
	}
	if !verdict.Success || score < s.cfg.MinScore {
		s.logger.Info("captcha rejected", zap.Bool("success", verdict.Success), zap.Float64("score", score), zap.Strings("error_codes", verdict.ErrorCodes))
		return appErrors.Clone(appErrors.ErrCaptchaFailed, "captcha verification failed")
	}
	return nil
}
