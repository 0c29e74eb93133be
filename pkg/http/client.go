package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// ErrNoCertificates is returned when a root CA file holds no usable certificate
var ErrNoCertificates = errors.New("no PEM certificates found")

// PinnedClientConfig holds the HTTP client configuration for the SOAP gateway.
// The server certificate is verified against RootCAs only; the system trust store is never consulted.
type PinnedClientConfig struct {
	// Trust anchor
	RootCAs *x509.CertPool
	// ServerName overrides the name checked against the certificate; empty means the dialed host
	ServerName    string
	MinTLSVersion uint16

	// Timeouts
	Timeout               time.Duration // Whole exchange, 0 means none
	DialTimeout           time.Duration // TCP connection timeout
	TLSHandshakeTimeout   time.Duration // TLS handshake timeout
	ResponseHeaderTimeout time.Duration // Waiting for response headers

	// One connection per call: opened, used and released by the exchange
	DisableKeepAlives bool
}

// GatewayClientConfig returns the config used for gateway calls
func GatewayClientConfig(rootCAs *x509.CertPool) *PinnedClientConfig {
	return &PinnedClientConfig{
		RootCAs:       rootCAs,
		MinTLSVersion: tls.VersionTLS12,

		Timeout:               60 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 45 * time.Second, // gateway batch actions can be slow

		DisableKeepAlives: true,
	}
}

// NewPinnedHTTPClient creates an HTTP client that only trusts cfg.RootCAs
func NewPinnedHTTPClient(cfg *PinnedClientConfig) (*http.Client, error) {
	if cfg == nil || cfg.RootCAs == nil {
		return nil, fmt.Errorf("root CA pool is required")
	}

	minVersion := cfg.MinTLSVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	dialer := &net.Dialer{
		Timeout: cfg.DialTimeout,
	}

	transport := &http.Transport{
		// No proxy: the TLS session must terminate at the gateway
		Proxy:       nil,
		DialContext: dialer.DialContext,

		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,

		DisableKeepAlives:  cfg.DisableKeepAlives,
		DisableCompression: true,

		TLSClientConfig: &tls.Config{
			RootCAs:    cfg.RootCAs,
			ServerName: cfg.ServerName,
			MinVersion: minVersion,
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		// SOAP endpoints never redirect; following one would re-post credentials elsewhere
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// RootCAPool builds a pool from PEM-encoded certificates
func RootCAPool(pemCerts []byte) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemCerts) {
		return nil, ErrNoCertificates
	}
	return pool, nil
}

// LoadRootCA reads a PEM root CA file into a pool
func LoadRootCA(path string) (*x509.CertPool, error) {
	pemCerts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read root CA file: %w", err)
	}
	pool, err := RootCAPool(pemCerts)
	if err != nil {
		return nil, fmt.Errorf("root CA file %s: %w", path, err)
	}
	return pool, nil
}
