package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPRequestBuilder builds requests against the API base URL
type HTTPRequestBuilder struct {
	baseURL *url.URL
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(baseURL string) (*HTTPRequestBuilder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host are required", baseURL)
	}
	return &HTTPRequestBuilder{baseURL: u}, nil
}

// BuildRequest builds a request for path relative to the base URL. A non-nil
// body is sent as JSON.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, method, path string, body any, query url.Values, auth AuthManager) (*Request, error) {
	target := b.buildURL(path, query)

	reader, contentType, err := b.createRequestBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if auth != nil {
		if err := auth.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	return &Request{
		URL:         httpReq.URL.String(),
		Method:      method,
		Body:        reader,
		ContentType: contentType,
		HttpRequest: httpReq,
	}, nil
}

func (b *HTTPRequestBuilder) buildURL(path string, query url.Values) string {
	base := *b.baseURL
	// a base without a trailing slash would drop its last segment on resolve
	if base.Path != "" && base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}
	u := base.ResolveReference(&url.URL{Path: path})

	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (b *HTTPRequestBuilder) createRequestBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(jsonData), "application/json", nil
}
