package dataweb

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dataweb/internal/model"
	"dataweb/internal/providers"
	"dataweb/internal/query"
	"dataweb/internal/report"
)

const (
	DefaultBaseURL        = "https://datawebws.usitc.gov/dataweb"
	defaultReportPath     = "/api/v2/report2/runReport"
	defaultCountriesPath  = "/api/v2/country/getAllCountries"
	defaultTimeoutSeconds = 120
	defaultUserAgent      = "dataweb-sweeper/0.1"
	maxErrorBody          = 512
)

var ErrTokenRequired = errors.New("dataweb: api token is required")

type Config struct {
	BaseURL            string
	ReportPath         string
	CountriesPath      string
	Token              string
	Timeout            time.Duration
	UserAgent          string
	InsecureSkipVerify bool
}

type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

func NewWithConfig(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrTokenRequired
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.ReportPath) == "" {
		cfg.ReportPath = defaultReportPath
	}
	if strings.TrimSpace(cfg.CountriesPath) == "" {
		cfg.CountriesPath = defaultCountriesPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for hosts with broken chains
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger: logger.Named("dataweb"),
	}, nil
}

func (c *Client) Name() string {
	return "dataweb"
}

// RunReport posts one payload and decodes the report. It makes exactly one
// attempt.
func (c *Client) RunReport(ctx context.Context, payload query.Payload) (*report.Raw, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dataweb: encode payload: %w", err)
	}

	started := time.Now()
	respBody, err := c.doRequest(ctx, http.MethodPost, c.endpoint(c.config.ReportPath), body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("report received",
		zap.Int("bytes", len(respBody)),
		zap.Duration("elapsed", time.Since(started)),
	)

	raw, err := report.Decode(respBody)
	if err != nil {
		return nil, fmt.Errorf("dataweb: run report: %w", err)
	}
	return raw, nil
}

type countriesResponse struct {
	Options []model.Country `json:"options"`
}

func (c *Client) ListCountries(ctx context.Context) ([]model.Country, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, c.endpoint(c.config.CountriesPath), nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, &model.Failure{Kind: model.ErrMalformed, Op: "dataweb: list countries", Err: err}
	}
	if _, ok := payload["options"]; !ok {
		return nil, &model.Failure{Kind: model.ErrMalformed, Op: "dataweb: list countries", Err: errors.New("missing options")}
	}
	var parsed countriesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &model.Failure{Kind: model.ErrMalformed, Op: "dataweb: list countries", Err: err}
	}

	countries := make([]model.Country, 0, len(parsed.Options))
	for _, option := range parsed.Options {
		value := strings.TrimSpace(option.Value)
		if value == "" {
			continue
		}
		countries = append(countries, model.Country{Name: strings.TrimSpace(option.Name), Value: value})
	}
	return countries, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	op := "dataweb: " + strings.ToLower(method) + " " + endpoint

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &model.Failure{Kind: model.ErrTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.Failure{Kind: model.ErrTransport, Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &model.Failure{
			Kind:       classifyStatus(resp.StatusCode),
			Op:         op,
			Status:     resp.StatusCode,
			RetryAfter: parseRetryAfter(resp),
			Err:        errors.New(truncate(strings.TrimSpace(string(respBody)))),
		}
	}
	return respBody, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return model.ErrAuth
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return model.ErrTransport
	default:
		return model.ErrRejected
	}
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := time.Parse(http.TimeFormat, value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
	}
	return 0
}

func truncate(text string) string {
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}

var (
	_ providers.ReportRunner  = (*Client)(nil)
	_ providers.CountryLister = (*Client)(nil)
)
