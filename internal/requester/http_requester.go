package requester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/dingtalk-oauth/internal/config"
	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HTTPRequester handles both request building and execution
type HTTPRequester struct {
	client  *http.Client
	builder *HTTPRequestBuilder
}

type HTTPRequesterParams struct {
	fx.In

	Config *config.Config
}

// NewHTTPRequester creates a new HTTPRequester from the api section of the config
func NewHTTPRequester(params HTTPRequesterParams) (*HTTPRequester, error) {
	return New(params.Config.API.BaseURL, params.Config.API.TimeoutDuration())
}

// New creates an HTTPRequester for baseURL with the given timeout
func New(baseURL string, timeout time.Duration) (*HTTPRequester, error) {
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	builder, err := NewHTTPRequestBuilder(baseURL)
	if err != nil {
		return nil, err
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: timeout,
		},
		builder: builder,
	}, nil
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// PostJSON sends body as JSON to path with the given query, authenticated by auth
func (r *HTTPRequester) PostJSON(ctx context.Context, path string, body any, query url.Values, auth AuthManager) (*Response, error) {
	return r.Do(ctx, http.MethodPost, path, body, query, auth)
}

// Get issues a GET request to path with the given query
func (r *HTTPRequester) Get(ctx context.Context, path string, query url.Values, auth AuthManager) (*Response, error) {
	return r.Do(ctx, http.MethodGet, path, nil, query, auth)
}

// Do builds and executes a request. Responses with status 400 or above are
// returned as *StatusError.
func (r *HTTPRequester) Do(ctx context.Context, method, path string, body any, query url.Values, auth AuthManager) (*Response, error) {
	req, err := r.builder.BuildRequest(ctx, method, path, body, query, auth)
	if err != nil {
		return nil, err
	}
	logger.Debug("request route", zap.String("method", method), zap.String("path", path))

	resp, err := r.execute(req)
	if err != nil {
		logger.Error("failed to execute request", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

func (r *HTTPRequester) execute(req *Request) (*Response, error) {
	resp, err := r.client.Do(req.HttpRequest)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redactURLError(err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}

// redactURLError drops the query from the URL carried by a transport error.
// The query holds access tokens, signatures and app secrets.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if i := strings.IndexByte(urlErr.URL, '?'); i >= 0 {
			urlErr.URL = urlErr.URL[:i]
		}
	}
	return err
}
