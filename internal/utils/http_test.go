package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/withceleste/celeste-go/core/errs"
	"github.com/withceleste/celeste-go/core/types"
)

type bearerAuth struct{ key string }

func (a bearerAuth) Apply(header http.Header) {
	header.Set("Authorization", "Bearer "+a.key)
}

// ---- DoPostSync tests -------------------------------------------------------

// TestDoPostSync_Success verifies that a 200 response with valid JSON is
// unmarshaled into the output struct and returned without error.
func TestDoPostSync_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":42}`)
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, result, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		types.ProviderOpenAI,
		server.URL,
		bearerAuth{key: "test-key"},
		map[string]string{"q": "test"},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result, got nil")
	}
	if result.Value != 42 {
		t.Errorf("expected Value=42, got %d", result.Value)
	}
}

// TestDoPostSync_AuthAndHeaders verifies that the authenticator and extra
// header options are applied to the outgoing request.
func TestDoPostSync_AuthAndHeaders(t *testing.T) {
	var gotAuth, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Custom")
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	type response struct{}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		types.ProviderOpenAI,
		server.URL,
		bearerAuth{key: "secret"},
		map[string]string{},
		HeaderOption{Key: "X-Custom", Value: "custom-value"},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected Authorization header, got %q", gotAuth)
	}
	if gotCustom != "custom-value" {
		t.Errorf("expected custom header, got %q", gotCustom)
	}
}

// TestDoPostSync_Non2xxStatus verifies that a non-2xx HTTP status surfaces a
// TransportError carrying the status code and body.
func TestDoPostSync_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "bad request")
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		types.ProviderOpenAI,
		server.URL,
		nil,
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected error for 400 response, got nil")
	}

	var transportErr *errs.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if transportErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", transportErr.StatusCode)
	}
	if !strings.Contains(string(transportErr.Body), "bad request") {
		t.Errorf("expected body in error, got %q", transportErr.Body)
	}
}

// TestDoPostSync_UnmarshalError verifies that a 200 response with a body that
// cannot be unmarshaled into the output struct returns an error mentioning
// "unmarshal".
func TestDoPostSync_UnmarshalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `"not json"`)
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		types.ProviderOpenAI,
		server.URL,
		nil,
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected unmarshal error, got nil")
	}
	if !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("expected unmarshal error, got: %v", err)
	}
}

// TestDoPostSync_ContextCancelled verifies that a cancelled context aborts
// the request.
func TestDoPostSync_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	type response struct{}

	_, _, err := DoPostSync[response](
		ctx,
		server.Client(),
		types.ProviderOpenAI,
		server.URL,
		nil,
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

// ---- DoGetSync tests --------------------------------------------------------

// TestDoGetSync_Success verifies a GET round-trip with no request body.
func TestDoGetSync_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("expected no Content-Type on GET, got %q", r.Header.Get("Content-Type"))
		}
		fmt.Fprint(w, `{"status":"Ready"}`)
	}))
	defer server.Close()

	type response struct {
		Status string `json:"status"`
	}

	_, result, err := DoGetSync[response](
		context.Background(),
		server.Client(),
		types.ProviderBFL,
		server.URL,
		nil,
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != "Ready" {
		t.Errorf("expected status Ready, got %q", result.Status)
	}
}

// ---- DoPostBinary tests -----------------------------------------------------

// TestDoPostBinary_Success verifies that raw bytes and the Content-Type are
// returned untouched.
func TestDoPostBinary_Success(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x90, 0x00}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	data, contentType, err := DoPostBinary(
		context.Background(),
		server.Client(),
		types.ProviderElevenLabs,
		server.URL,
		nil,
		map[string]string{"text": "hello"},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if contentType != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", contentType)
	}
	if string(data) != string(audio) {
		t.Errorf("expected %v, got %v", audio, data)
	}
}

// TestDoPostBinary_Non2xx verifies the TransportError path for binary
// endpoints.
func TestDoPostBinary_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"invalid key"}`)
	}))
	defer server.Close()

	_, _, err := DoPostBinary(
		context.Background(),
		server.Client(),
		types.ProviderElevenLabs,
		server.URL,
		nil,
		map[string]string{},
	)

	var transportErr *errs.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", transportErr.StatusCode)
	}
}

// ---- CloseWithLog tests -----------------------------------------------------

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("close failed") }

// TestCloseWithLog_ErrorPath verifies that CloseWithLog does not panic when
// the underlying Close returns an error.
func TestCloseWithLog_ErrorPath(t *testing.T) {
	CloseWithLog(failingCloser{})
}
