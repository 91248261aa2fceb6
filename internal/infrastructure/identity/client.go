package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/cache"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	errIdentityTransient = crerr.New("identity service transient failure")
	// ErrRejected is returned when the identity service refuses our credentials.
	ErrRejected = errors.New("identity service rejected request")
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL        string
	VerifyPath     string
	ProfilePath    string
	APIKey         string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client asks a remote identity service for scope access verdicts and
// display profiles. Successful answers are cached for CacheTTL.
type Client struct {
	httpClient *http.Client
	verifyURL  string
	profileURL string
	apiKey     string
	breaker    *resilience.CircuitBreaker
	verdicts   *cache.Store[access.Verdict]
	profiles   *cache.Store[access.Profile]
	logger     *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if cfg.VerifyPath == "" {
		cfg.VerifyPath = "/v1/access/verify"
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = "/v1/users/profile"
	}

	c := &Client{
		httpClient: httpClient,
		verifyURL:  buildURL(cfg.BaseURL, cfg.VerifyPath),
		profileURL: buildURL(cfg.BaseURL, cfg.ProfilePath),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger.Named("identity"),
	}
	c.breaker = resilience.NewCircuitBreaker("identity", cfg.CircuitBreaker).OnStateChange(c.logTransition)
	if cfg.CacheTTL > 0 {
		c.verdicts = cache.NewStore[access.Verdict](cfg.CacheTTL)
		c.profiles = cache.NewStore[access.Profile](cfg.CacheTTL)
	}
	return c
}

func (c *Client) Verify(ctx context.Context, userID, scopeID string) (access.Verdict, error) {
	load := func(ctx context.Context) (access.Verdict, error) {
		var decoded verifyResponse
		if err := c.call(ctx, c.verifyURL, verifyRequest{UserID: userID, ScopeID: scopeID}, &decoded); err != nil {
			return access.Verdict{}, err
		}
		return access.Verdict{
			HasAccess: decoded.HasAccess,
			Level:     normalizeLevel(decoded.AccessLevel, decoded.HasAccess),
		}, nil
	}
	if c.verdicts == nil {
		return load(ctx)
	}
	return c.verdicts.GetOrLoad(ctx, "verify:"+userID+":"+scopeID, load)
}

func (c *Client) Profile(ctx context.Context, userID string) (access.Profile, error) {
	load := func(ctx context.Context) (access.Profile, error) {
		var decoded profileResponse
		if err := c.call(ctx, c.profileURL, profileRequest{UserID: userID}, &decoded); err != nil {
			return access.Profile{}, err
		}
		profile := access.Profile{
			DisplayName: strings.TrimSpace(decoded.Name),
			Handle:      strings.TrimSpace(decoded.Username),
		}
		if profile.DisplayName == "" {
			profile.DisplayName = profile.Handle
		}
		return profile, nil
	}
	if c.profiles == nil {
		return load(ctx)
	}
	return c.profiles.GetOrLoad(ctx, "profile:"+userID, load)
}

func (c *Client) call(ctx context.Context, url string, payload any, out any) error {
	done, err := c.breaker.Allow()
	if err != nil {
		c.logger.WarnContext(ctx, "identity circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("identity service is temporarily unavailable: %w", err)
	}

	err = c.do(ctx, url, payload, out)
	done(!isCircuitFailure(err))
	return err
}

func (c *Client) logTransition(name string, from, to resilience.CircuitState) {
	c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
}

func (c *Client) do(ctx context.Context, url string, payload any, out any) error {
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal identity request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return crerr.Wrap(err, "create identity request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %v", errIdentityTransient, err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return fmt.Errorf("%w: read response body: %v", errIdentityTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d", ErrRejected, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status=%d", errIdentityTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "identity service non-200", "status_code", resp.StatusCode, "url", url)
		return crerr.Newf("identity service returned status %d", resp.StatusCode)
	}

	if err := sonic.Unmarshal(buf.B, out); err != nil {
		return crerr.Wrap(err, "decode identity response")
	}
	return nil
}

type verifyRequest struct {
	UserID  string `json:"user_id"`
	ScopeID string `json:"scope_id"`
}

type verifyResponse struct {
	HasAccess   bool   `json:"has_access"`
	AccessLevel string `json:"access_level"`
}

type profileRequest struct {
	UserID string `json:"user_id"`
}

type profileResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}
