package spond

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/cache"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/resilience"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.spond.com"
	defaultTokenTTL = 30 * time.Minute
	loginTokenKey   = "spond:login-token"
)

var errSpondTransient = crerr.New("spond transient failure")
var errSpondTokenRejected = crerr.New("spond token rejected")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Username       string
	Password       string
	Timeout        time.Duration
	TokenTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Now            func() time.Time
}

// Client reads event responses from Spond. The login token is cached and
// dropped when the API rejects it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	tokens     *cache.Store
	now        func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   strings.TrimSpace(cfg.Username),
		password:   cfg.Password,
		logger:     logger.Named("spond"),
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		tokens:     cache.NewBoundedStore(ttl, 1),
		now:        now,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.username != "" && c.password != ""
}

func (c *Client) FetchEvent(ctx context.Context, eventID string) (usecase.ProviderEvent, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return usecase.ProviderEvent{}, fmt.Errorf("%w: event id is required", usecase.ErrInvalidInput)
	}
	if !c.Configured() {
		return usecase.ProviderEvent{}, fmt.Errorf("%w: spond credentials are not configured", usecase.ErrDependencyUnavailable)
	}
	var raw []byte
	err := c.breaker.Execute(func() error {
		var getErr error
		raw, getErr = c.getEvent(ctx, eventID)
		if stderrors.Is(getErr, errSpondTokenRejected) {
			c.tokens.Delete(ctx, loginTokenKey)
			raw, getErr = c.getEvent(ctx, eventID)
		}
		return getErr
	}, func(err error) bool { return stderrors.Is(err, errSpondTransient) })
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "spond circuit breaker rejected request", "state", c.breaker.State())
		return usecase.ProviderEvent{}, fmt.Errorf("%w: spond is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return usecase.ProviderEvent{}, crerr.Wrapf(err, "fetch spond event %s", eventID)
	}

	var payload eventPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return usecase.ProviderEvent{}, crerr.Wrap(err, "decode spond event")
	}
	return payload.toProviderEvent(c.now().UTC()), nil
}

func (c *Client) getEvent(ctx context.Context, eventID string) ([]byte, error) {
	token, err := c.loginToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/core/v1/sponds/"+url.PathEscape(eventID), nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build event request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(ctx, req)
}

func (c *Client) loginToken(ctx context.Context) (string, error) {
	out, err := c.tokens.GetOrLoad(ctx, loginTokenKey, func(ctx context.Context) (any, error) {
		body, err := sonic.Marshal(loginRequest{Email: c.username, Password: c.password})
		if err != nil {
			return nil, crerr.Wrap(err, "marshal login request")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/core/v1/login", bytes.NewReader(body))
		if err != nil {
			return nil, crerr.Wrap(err, "build login request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		raw, err := c.do(ctx, req)
		if err != nil {
			if stderrors.Is(err, errSpondTokenRejected) {
				return nil, fmt.Errorf("%w: spond login rejected", usecase.ErrUnauthorized)
			}
			return nil, err
		}
		var decoded loginResponse
		if err := sonic.Unmarshal(raw, &decoded); err != nil {
			return nil, crerr.Wrap(err, "decode login response")
		}
		if strings.TrimSpace(decoded.LoginToken) == "" {
			return nil, fmt.Errorf("%w: spond login returned no token", usecase.ErrUnauthorized)
		}
		c.logger.InfoContext(ctx, "spond login succeeded")
		return decoded.LoginToken, nil
	})
	if err != nil {
		return "", err
	}
	token, _ := out.(string)
	return token, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errSpondTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errSpondTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status=%d", errSpondTokenRejected, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: spond event not found", usecase.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		c.logger.WarnContext(ctx, "spond request failed", "path", req.URL.Path, "status_code", resp.StatusCode)
		return nil, fmt.Errorf("%w: status=%d", errSpondTransient, resp.StatusCode)
	default:
		return nil, crerr.Newf("spond status=%d", resp.StatusCode)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	LoginToken string `json:"loginToken"`
}

type eventPayload struct {
	ID        string `json:"id"`
	Heading   string `json:"heading"`
	Responses struct {
		AcceptedIDs    []string `json:"acceptedIds"`
		DeclinedIDs    []string `json:"declinedIds"`
		UnansweredIDs  []string `json:"unansweredIds"`
		WaitingListIDs []string `json:"waitingListIds"`
	} `json:"responses"`
}

func (p eventPayload) toProviderEvent(fetchedAt time.Time) usecase.ProviderEvent {
	return usecase.ProviderEvent{
		ID:            p.ID,
		Heading:       strings.TrimSpace(p.Heading),
		AcceptedIDs:   nonNil(p.Responses.AcceptedIDs),
		DeclinedIDs:   nonNil(p.Responses.DeclinedIDs),
		WaitingIDs:    nonNil(p.Responses.WaitingListIDs),
		UnansweredIDs: nonNil(p.Responses.UnansweredIDs),
		FetchedAt:     fetchedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
