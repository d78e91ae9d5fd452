package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"dhruva/internal/bootstrap"
	"dhruva/internal/ledger/memory"
	"dhruva/internal/platform/config"
	"dhruva/internal/platform/logger"
)

const (
	adminToken    = "e2e-admin-token"
	ownerWallet   = "0x00000000000000000000000000000000000000f0"
	operatorAdmin = "admin1"
)

// TestContext holds state between test steps. Against BASE_URL it drives a
// running server; otherwise each scenario gets its own in-process app with
// in-memory stores and the simulated ledger.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	vars   map[string]string
	server *httptest.Server
	app    *bootstrap.App
}

// NewTestContext creates a new test context
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    os.Getenv("BASE_URL"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		vars:       map[string]string{},
	}
}

// Start builds the in-process app unless BASE_URL points elsewhere.
func (tc *TestContext) Start(ctx context.Context) error {
	if tc.BaseURL != "" {
		return nil
	}
	cfg := config.Server{
		Environment:     "test",
		AdminToken:      adminToken,
		JWTSigningKey:   "e2e-signing-key",
		TokenTTL:        time.Minute,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
		Cleanup:         config.CleanupConfig{Buffer: 16},
	}
	app, err := bootstrap.Build(ctx, cfg, logger.Discard(),
		bootstrap.WithLedger(memory.New(ownerWallet), ownerWallet))
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	tc.app = app
	tc.server = httptest.NewServer(app.Router)
	tc.BaseURL = tc.server.URL
	return nil
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
	if tc.app != nil {
		tc.app.Close()
	}
}

// Set remembers a value for later {name} expansion.
func (tc *TestContext) Set(name, value string) { tc.vars[name] = value }

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// Do sends a JSON request and stores the response.
func (tc *TestContext) Do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) GET(path string) error {
	return tc.Do(http.MethodGet, path, nil, nil)
}

// Admin sends a request carrying the admin token.
func (tc *TestContext) Admin(method, path string, body any) error {
	return tc.Do(method, path, body, map[string]string{
		"X-Admin-Token":    adminToken,
		"X-Admin-Actor-ID": operatorAdmin,
	})
}

// GetResponseField extracts a field from the JSON response. Dotted paths
// descend into nested objects.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		if data, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte { return tc.LastResponseBody }
