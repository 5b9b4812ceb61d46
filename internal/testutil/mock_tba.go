// Package testutil provides testing utilities for the TBA teams client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockTBAResponse defines the behavior for a mock TBA endpoint response.
type MockTBAResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockTBA is a configurable mock TBA API server for testing.
type MockTBA struct {
	server    *httptest.Server
	mu        sync.RWMutex
	sequences map[string][]MockTBAResponse

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
}

// NewMockTBA creates a new mock TBA server. Unconfigured paths answer 404.
func NewMockTBA() *MockTBA {
	mock := &MockTBA{
		sequences:  make(map[string][]MockTBAResponse),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()

		// Scripted sequences are consumed in order; the last response repeats
		if seq, ok := mock.sequences[r.URL.Path]; ok && len(seq) > 0 {
			resp := seq[0]
			if len(seq) > 1 {
				mock.sequences[r.URL.Path] = seq[1:]
			}
			mock.mu.Unlock()
			writeResponse(w, resp)
			return
		}

		mock.mu.Unlock()

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL (use as the client base URL).
func (m *MockTBA) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTBA) Close() {
	m.server.Close()
}

// SetSequence scripts successive responses for a path.
func (m *MockTBA) SetSequence(path string, responses ...MockTBAResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[path] = responses
}

// SetTeamsPage scripts the responses for /teams/{page}.
func (m *MockTBA) SetTeamsPage(page int, responses ...MockTBAResponse) {
	m.SetSequence(TeamsPath(page), responses...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockTBA) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockTBA) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockTBA) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// defaultHandler mirrors TBA's answer for unknown resources.
func (m *MockTBA) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"Errors":[{"path":%q}]}`, r.URL.Path)
}

func writeResponse(w http.ResponseWriter, resp MockTBAResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// TeamsPath returns the request path for a teams page.
func TeamsPath(page int) string {
	return fmt.Sprintf("/teams/%d", page)
}

// TeamsJSON renders a page body with one team per number.
func TeamsJSON(numbers ...int) string {
	type team struct {
		Key        string `json:"key"`
		TeamNumber int    `json:"team_number"`
		Nickname   string `json:"nickname"`
		Name       string `json:"name"`
	}

	page := make([]team, 0, len(numbers))
	for _, n := range numbers {
		page = append(page, team{
			Key:        fmt.Sprintf("frc%d", n),
			TeamNumber: n,
			Nickname:   fmt.Sprintf("Nick %d", n),
			Name:       fmt.Sprintf("Team %d", n),
		})
	}

	data, err := json.Marshal(page)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// NewTeamsPageResponse creates a 200 OK response carrying body.
func NewTeamsPageResponse(body string) MockTBAResponse {
	return MockTBAResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":  "application/json; charset=utf-8",
			"Cache-Control": "public, max-age=61",
		},
	}
}

// NewEmptyPageResponse creates a 200 OK response with an empty array.
func NewEmptyPageResponse() MockTBAResponse {
	return NewTeamsPageResponse("[]")
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockTBAResponse {
	return MockTBAResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"Errors":[{"page":"not found"}]}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockTBAResponse {
	return MockTBAResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"Error":"Rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockTBAResponse {
	return MockTBAResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"Error":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewUnauthorizedResponse creates a 401 response as sent for a bad X-TBA-Auth-Key.
func NewUnauthorizedResponse() MockTBAResponse {
	return MockTBAResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"Error":"X-TBA-Auth-Key is invalid. Please get an access key at http://www.thebluealliance.com/account."}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
