package http

import (
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/scylladb/go-set/strset"
	"golang.org/x/oauth2"

	"github.com/anchore/go-logger"
)

const GitHubAPIHost = "api.github.com"

var tokenEnvVars = []string{"GITHUB_API_TOKEN", "GITHUB_TOKEN"}

// GitHubToken returns the first non-empty GitHub token found in the environment.
func GitHubToken() string {
	for _, key := range tokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// NewClient creates a retryable HTTP client. When a token is provided, requests to the GitHub API
// carry it as a bearer token; requests to any other host (e.g. direct download URLs) never do.
func NewClient(lgr logger.Logger, token string) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	if lgr != nil {
		client.Logger = NewLeveledLogger(lgr)
	}

	if token != "" {
		client.HTTPClient.Transport = newHostScopedTransport(client.HTTPClient.Transport, token, GitHubAPIHost)
	}

	return client
}

// hostScopedTransport attaches oauth2 credentials only for an allowlist of hosts.
type hostScopedTransport struct {
	hosts  *strset.Set
	authed http.RoundTripper
	base   http.RoundTripper
}

func newHostScopedTransport(base http.RoundTripper, token string, hosts ...string) *hostScopedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &hostScopedTransport{
		hosts: strset.New(hosts...),
		authed: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   base,
		},
		base: base,
	}
}

func (t *hostScopedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.hosts.Has(strings.ToLower(req.URL.Host)) {
		return t.authed.RoundTrip(req)
	}
	return t.base.RoundTrip(req)
}
