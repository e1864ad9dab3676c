package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostScopedTransport_OnlyAuthorizesAllowedHosts(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := NewClient(nil, "")
	client.RetryMax = 0

	// allow the test server host
	client.HTTPClient.Transport = newHostScopedTransport(client.HTTPClient.Transport, "test-token", u.Host)
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	// allow some other host only
	client.HTTPClient.Transport = newHostScopedTransport(nil, "test-token", GitHubAPIHost)
	resp, err = client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, authHeaders, 2)
	assert.Equal(t, "Bearer test-token", authHeaders[0])
	assert.Empty(t, authHeaders[1])
}

func TestNewClient_RetriesServerErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(nil, "")
	client.RetryWaitMin = 0
	client.RetryWaitMax = 0

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, requests, "expected 3 requests (2 retries)")
}

func TestGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_API_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", " from-env ")
	assert.Equal(t, "from-env", GitHubToken())

	t.Setenv("GITHUB_API_TOKEN", "api")
	assert.Equal(t, "api", GitHubToken())
}
