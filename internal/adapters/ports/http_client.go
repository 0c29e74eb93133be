package ports

import "net/http"

// HTTPClient performs a single HTTP exchange.
// *http.Client satisfies it; tests inject mocks.MockHTTPClient.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
