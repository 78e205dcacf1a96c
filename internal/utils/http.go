package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
	"github.com/withceleste/celeste-go/observability"
)

// Authenticator applies provider credentials to a request's headers. It is
// satisfied by the credential types in the credentials package.
type Authenticator interface {
	Apply(header http.Header)
}

// HeaderOption is an additional header to set on an outbound request.
type HeaderOption struct {
	Key   string
	Value string
}

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// CloseWithLog closes c, logging any close error without propagating it. Use
// it in defers where the primary error must not be overridden.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and parses the
// JSON response into OutputStruct.
//
// Error handling:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Non-2xx responses return a TransportError carrying status and body
//   - Response body close errors are logged but never override primary errors
//   - JSON parsing errors include a response preview for debugging
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, provider types.Provider, url string, auth Authenticator, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	return doJSONSync[OutputStruct](ctx, client, provider, http.MethodPost, url, auth, body, headers...)
}

// DoGetSync performs a synchronous HTTP GET and parses the JSON response into
// OutputStruct. It shares DoPostSync's error handling.
func DoGetSync[OutputStruct any](ctx context.Context, client *http.Client, provider types.Provider, url string, auth Authenticator, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	return doJSONSync[OutputStruct](ctx, client, provider, http.MethodGet, url, auth, nil, headers...)
}

func doJSONSync[OutputStruct any](ctx context.Context, client *http.Client, provider types.Provider, method string, url string, auth Authenticator, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	logger := observability.FromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var reader io.Reader
	var bodySize int
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("error marshaling body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
		bodySize = len(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		auth.Apply(req.Header)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	logger.Debug(ctx, "http request",
		observability.String(observability.AttrHTTPMethod, method),
		observability.String(observability.AttrHTTPURL, url),
		observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
	)

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		logger.Warn(ctx, "http request failed",
			observability.Error(err),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
		return res, nil, errs.NewTransportError(provider, 0, nil, err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	logger.Debug(ctx, "http response",
		observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
		observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
		observability.Duration(observability.AttrHTTPDuration, requestDuration),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, errs.NewTransportError(provider, res.StatusCode, respBody, nil)
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), 500))
	}

	return res, &resStruct, nil
}

// DoGetBinary performs a synchronous HTTP GET and returns the raw response
// body with its Content-Type. Used to download generated media artifacts.
func DoGetBinary(ctx context.Context, client *http.Client, provider types.Provider, url string, auth Authenticator) ([]byte, string, error) {
	return doBinary(ctx, client, provider, http.MethodGet, url, auth, nil)
}

// DoPostBinary performs a synchronous HTTP POST with a JSON body and returns
// the raw response body with its Content-Type. Used by endpoints that answer
// with media bytes instead of JSON.
func DoPostBinary(ctx context.Context, client *http.Client, provider types.Provider, url string, auth Authenticator, body any) ([]byte, string, error) {
	return doBinary(ctx, client, provider, http.MethodPost, url, auth, body)
}

func doBinary(ctx context.Context, client *http.Client, provider types.Provider, method string, url string, auth Authenticator, body any) ([]byte, string, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("error marshaling body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, "", fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		auth.Apply(req.Header)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, "", errs.NewTransportError(provider, 0, nil, err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("error reading response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, "", errs.NewTransportError(provider, res.StatusCode, respBody, nil)
	}

	return respBody, res.Header.Get("Content-Type"), nil
}
