// Package e2e runs the Gherkin features in features/ against a running server.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// TestContext carries HTTP state between steps of one scenario.
type TestContext struct {
	BaseURL  string
	AdminKey string

	client       *http.Client
	lastStatus   int
	lastBody     []byte
	lastLocation *url.URL

	subjectID    string
	sessionToken string
}

// NewTestContext builds a context that does not follow redirects so the
// handshake hops can be inspected one at a time.
func NewTestContext(baseURL, adminKey string) *TestContext {
	return &TestContext{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastLocation = nil
	tc.subjectID = ""
	tc.sessionToken = ""
}

// POST sends body as JSON to path.
func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// GET requests path with optional headers.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.resolve(path), nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

func (tc *TestContext) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return tc.BaseURL + path
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	tc.lastLocation = nil
	if loc, err := resp.Location(); err == nil {
		tc.lastLocation = loc
	}
	return nil
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(tc.lastBody, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) GetLastResponseStatus() int   { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte  { return tc.lastBody }
func (tc *TestContext) GetLastLocation() *url.URL    { return tc.lastLocation }
func (tc *TestContext) GetAdminKey() string          { return tc.AdminKey }
func (tc *TestContext) GetSubjectID() string         { return tc.subjectID }
func (tc *TestContext) SetSubjectID(id string)       { tc.subjectID = id }
func (tc *TestContext) GetSessionToken() string      { return tc.sessionToken }
func (tc *TestContext) SetSessionToken(token string) { tc.sessionToken = token }
