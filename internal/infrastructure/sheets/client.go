package sheets

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/cache"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/resilience"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL          = "https://sheets.googleapis.com/v4"
	defaultDocumentCacheTTL = 5 * time.Minute
	defaultDocumentCacheMax = 64
)

var errSheetsTransient = crerr.New("sheets transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	// TokenSource is nil when no Google credentials are configured.
	TokenSource      oauth2.TokenSource
	Timeout          time.Duration
	MaxRetries       int
	DocumentCacheTTL time.Duration
	DocumentCacheMax int
	Logger           *logging.Logger
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// Client is the Google Sheets v4 REST gateway. It keeps a bounded TTL cache
// of worksheet titles per spreadsheet; any failed read for a spreadsheet
// evicts its entry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight[[]byte]
	documents  *cache.Store
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.DocumentCacheTTL
	if ttl <= 0 {
		ttl = defaultDocumentCacheTTL
	}
	maxDocs := cfg.DocumentCacheMax
	if maxDocs <= 0 {
		maxDocs = defaultDocumentCacheMax
	}

	var tokens oauth2.TokenSource
	if cfg.TokenSource != nil {
		tokens = oauth2.ReuseTokenSource(nil, cfg.TokenSource)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("sheets"),
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		documents:  cache.NewBoundedStore(ttl, maxDocs),
	}
}

func (c *Client) IsAuthenticated(ctx context.Context) bool {
	if c == nil || c.tokens == nil {
		return false
	}
	token, err := c.tokens.Token()
	if err != nil {
		c.logger.WarnContext(ctx, "google token unavailable", "error", err)
		return false
	}
	return token.Valid()
}

func (c *Client) ListWorksheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, crerr.New("spreadsheet id is required")
	}

	out, err := c.documents.GetOrLoad(ctx, spreadsheetID, func(ctx context.Context) (any, error) {
		path := "/spreadsheets/" + url.PathEscape(spreadsheetID)
		query := url.Values{"fields": {"sheets.properties.title"}}

		var doc spreadsheetDocument
		if err := c.doJSON(ctx, path, query, &doc); err != nil {
			return nil, err
		}
		titles := make([]string, 0, len(doc.Sheets))
		for _, sheet := range doc.Sheets {
			titles = append(titles, sheet.Properties.Title)
		}
		return titles, nil
	})
	if err != nil {
		return nil, crerr.Wrapf(err, "list worksheets spreadsheet=%s", spreadsheetID)
	}

	titles, _ := out.([]string)
	return append([]string(nil), titles...), nil
}

func (c *Client) GetCellValue(ctx context.Context, spreadsheetID, worksheet, cell string) (string, error) {
	grid, err := c.GetGrid(ctx, spreadsheetID, worksheet, cell)
	if err != nil {
		return "", err
	}
	return grid.Cell(0, 0), nil
}

func (c *Client) GetGrid(ctx context.Context, spreadsheetID, worksheet, rangeAddr string) (usecase.Grid, error) {
	a1 := usecase.WorksheetRange(worksheet, strings.TrimSpace(rangeAddr))
	path := "/spreadsheets/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(a1)
	query := url.Values{
		"majorDimension":    {"ROWS"},
		"valueRenderOption": {"FORMATTED_VALUE"},
	}

	var payload valueRange
	if err := c.doJSON(ctx, path, query, &payload); err != nil {
		c.documents.Delete(ctx, spreadsheetID)
		return nil, crerr.Wrapf(err, "read range %s", a1)
	}
	return toGrid(payload.Values), nil
}

func (c *Client) BatchGetGrids(ctx context.Context, spreadsheetID string, ranges []string) ([]usecase.Grid, error) {
	if len(ranges) == 0 {
		return []usecase.Grid{}, nil
	}

	path := "/spreadsheets/" + url.PathEscape(spreadsheetID) + "/values:batchGet"
	query := url.Values{
		"majorDimension":    {"ROWS"},
		"valueRenderOption": {"FORMATTED_VALUE"},
		"ranges":            ranges,
	}

	var payload batchValueRanges
	if err := c.doJSON(ctx, path, query, &payload); err != nil {
		c.documents.Delete(ctx, spreadsheetID)
		return nil, crerr.Wrapf(err, "batch read %d ranges", len(ranges))
	}
	if len(payload.ValueRanges) != len(ranges) {
		c.documents.Delete(ctx, spreadsheetID)
		return nil, crerr.Newf("batch read returned %d ranges, want %d", len(payload.ValueRanges), len(ranges))
	}

	out := make([]usecase.Grid, 0, len(payload.ValueRanges))
	for _, item := range payload.ValueRanges {
		out = append(out, toGrid(item.Values))
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.tokens == nil {
		return fmt.Errorf("%w: google credentials are not configured", usecase.ErrUnauthorized)
	}
	fullURL := buildURL(c.baseURL, path, query)
	// Joined callers share this request, so it must outlive the first caller's context.
	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestBudget())
		defer cancel()

		var body []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			body, reqErr = c.executeRequest(flightCtx, fullURL)
			return reqErr
		}, isCircuitFailure)
		return body, execErr
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "sheets circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: spreadsheet service is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode sheets payload")
	}
	return nil
}

// requestBudget covers every attempt plus the linear backoff between them.
func (c *Client) requestBudget() time.Duration {
	attempts := time.Duration(c.maxRetries + 1)
	backoff := time.Duration(c.maxRetries*(c.maxRetries+1)/2) * time.Second
	return attempts*c.httpClient.Timeout + backoff
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: refresh google token: %v", usecase.ErrUnauthorized, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("Accept", "application/json")
		token.SetAuthHeader(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSheetsTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSheetsTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, fmt.Errorf("%w: sheets status=%d", usecase.ErrUnauthorized, resp.StatusCode)
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: sheets status=%d body=%s", usecase.ErrNotFound, resp.StatusCode, abbreviateBody(raw))
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: sheets status=%d body=%s", errSheetsTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, crerr.Newf("sheets status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("sheets request failed")
	}
	c.logger.WarnContext(ctx, "sheets request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

type spreadsheetDocument struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRange struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

type batchValueRanges struct {
	ValueRanges []valueRange `json:"valueRanges"`
}

func toGrid(values [][]any) usecase.Grid {
	grid := make(usecase.Grid, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, cellString(v))
		}
		grid = append(grid, cells)
	}
	return grid
}

func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}

func buildURL(baseURL, path string, query url.Values) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(baseURL)
	_, _ = buf.WriteString(path)
	if encoded := query.Encode(); encoded != "" {
		_ = buf.WriteByte('?')
		_, _ = buf.WriteString(encoded)
	}
	return buf.String()
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errSheetsTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
