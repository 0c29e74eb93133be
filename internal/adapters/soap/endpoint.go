package soap

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

const defaultHTTPSPort = 443

// Endpoint is the fixed location of one remote SOAP service.
type Endpoint struct {
	Host string
	Port int
	Path string
}

// ParseEndpoint parses an https URL such as https://pal-test.example.com/pal/servlet/soap/Payment.
// A missing port defaults to 443 and a missing path to "/".
func ParseEndpoint(rawURL string) (Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint URL %q: %w", rawURL, err)
	}
	if u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("endpoint %q must use https", rawURL)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q has no host", rawURL)
	}

	port := defaultHTTPSPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("endpoint %q has invalid port %q", rawURL, p)
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return Endpoint{Host: u.Hostname(), Port: port, Path: path}, nil
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the https URL the request is posted to.
func (e Endpoint) URL() string {
	return "https://" + e.Address() + e.Path
}

func (e Endpoint) String() string {
	return e.URL()
}

// Validate checks the endpoint can be dialed.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("endpoint host is required")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("endpoint port %d is out of range", e.Port)
	}
	if e.Path == "" || e.Path[0] != '/' {
		return fmt.Errorf("endpoint path %q must start with /", e.Path)
	}
	return nil
}
