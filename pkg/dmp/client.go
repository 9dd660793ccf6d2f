package dmp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

var Version = "0.1.0"

var UserAgent = fmt.Sprintf("dmp-go/%s", Version)

// BaseURL of the production DMP API
const BaseURLProduction = "https://dmp-api.cloudtechnologies.dev"

const (
	// DefaultPartnerID is the CloudTechnologies supplier id used when the
	// config does not name a partner.
	DefaultPartnerID = 1

	DefaultContentType = "application/json"
	DefaultAccept      = "*/*"

	// DefaultRate keeps roughly one request per 800ms, matching the pace
	// the DMP operators expect from bulk assignment jobs.
	DefaultRate = rate.Limit(1.25)
)

// ClientConfig of the DMP assignment client
type ClientConfig struct {
	Username    string  `yaml:"username" validate:"required,email"`
	Password    string  `yaml:"password" validate:"required"`
	PartnerID   int     `yaml:"partner_id" validate:"omitempty,min=1"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	ContentType string  `yaml:"content_type"`
	Accept      string  `yaml:"accept"`
	Rate        float64 `yaml:"rate" validate:"omitempty,gt=0"`
	UserAgent   string  `yaml:"user_agent"`
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client. The caller is then
// responsible for timeouts and transport settings.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRateLimit replaces the default token bucket pacing assignment
// requests.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTimeout sets the timeout of the HTTP client built internally. It has
// no effect when WithHTTPClient supplies one; that client's own timeout
// applies.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client issues datapoint assignments against the DMP API. Credentials and
// partner id are fixed for the lifetime of the client. Every public
// assignment call logs in once and shares the token across the batch; tokens
// are never reused between calls.
type Client struct {
	config     ClientConfig
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClientFromConfig(config ClientConfig, options ...ClientOption) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}

	if config.PartnerID == 0 {
		config.PartnerID = DefaultPartnerID
	}
	if config.BaseURL == "" {
		config.BaseURL = BaseURLProduction
	}
	if config.ContentType == "" {
		config.ContentType = DefaultContentType
	}
	if config.Accept == "" {
		config.Accept = DefaultAccept
	}
	if config.UserAgent == "" {
		config.UserAgent = UserAgent
	}

	limit := DefaultRate
	if config.Rate != 0 {
		limit = rate.Limit(config.Rate)
	}

	client := &Client{
		config:  config,
		baseURL: config.BaseURL,
		limiter: rate.NewLimiter(limit, 1),
	}

	for _, option := range options {
		option(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Transport: &transportAddUserAgent{http.DefaultTransport, config.UserAgent},
			Timeout:   client.timeout,
		}
	}

	return client, nil
}

// PartnerID returns the supplier id the client issues assignments for.
func (c *Client) PartnerID() int {
	return c.config.PartnerID
}

type transportAddUserAgent struct {
	transport http.RoundTripper
	userAgent string
}

func (t *transportAddUserAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// authenticate posts the credentials to the login endpoint and returns the
// token from the X-Auth-Token response header. A missing header is an
// authentication failure, not a usable nil token.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("email", c.config.Username)
	query.Set("password", c.config.Password)

	loginURL := fmt.Sprintf("%s/login?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &AuthenticationError{HTTPCode: resp.StatusCode}
	}

	token := resp.Header.Get("X-Auth-Token")
	if token == "" {
		return "", &AuthenticationError{HTTPCode: resp.StatusCode, MissingToken: true}
	}

	return token, nil
}
