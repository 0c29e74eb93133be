package soap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrCertificateVerification matches any TransportError caused by the pinned CA check.
	ErrCertificateVerification = errors.New("server certificate verification failed")
	// ErrCredentials wraps failures of the credentials provider.
	ErrCredentials = errors.New("failed to resolve gateway credentials")
	// ErrResponseWrap wraps failures of the ResponseFactory.
	ErrResponseWrap = errors.New("failed to wrap gateway response")
)

// TransportReason classifies why an exchange failed
type TransportReason string

const (
	ReasonCertificate TransportReason = "certificate"
	ReasonDNS         TransportReason = "dns"
	ReasonTimeout     TransportReason = "timeout"
	ReasonCanceled    TransportReason = "canceled"
	ReasonConnection  TransportReason = "connection"
	ReasonRead        TransportReason = "read"
	ReasonRequest     TransportReason = "request"
	ReasonCircuitOpen TransportReason = "circuit_open"
)

// TransportError is a failed exchange: no HTTP response was classified.
type TransportError struct {
	ClientType string
	Action     string
	Endpoint   Endpoint
	Reason     TransportReason
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("soap transport error (%s) calling %s on %s: %v", e.Reason, e.Action, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCertificateVerification) single out certificate failures.
func (e *TransportError) Is(target error) bool {
	return target == ErrCertificateVerification && e.Reason == ReasonCertificate
}

// IsCertificateFailure reports a pinned CA verification failure.
func (e *TransportError) IsCertificateFailure() bool {
	return e.Reason == ReasonCertificate
}

// Retriable is false for certificate and request construction failures.
func (e *TransportError) Retriable() bool {
	switch e.Reason {
	case ReasonCertificate, ReasonRequest, ReasonCanceled:
		return false
	default:
		return true
	}
}

// ClientError is an HTTP 4xx answer. The request should change before it is sent again.
type ClientError struct {
	Outcome *Outcome
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("soap client error calling %s on %s%s", e.Outcome.Action, e.Outcome.Endpoint, statusSuffix(e.Outcome.Response))
}

func (e *ClientError) Retriable() bool {
	return false
}

// ServerError is a gateway failure reported in the response body.
type ServerError struct {
	Outcome *Outcome
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("soap server error calling %s on %s%s", e.Outcome.Action, e.Outcome.Endpoint, statusSuffix(e.Outcome.Response))
}

// Retriable is true; whether to retry is the caller's policy.
func (e *ServerError) Retriable() bool {
	return true
}

type statusCoder interface {
	StatusCode() int
}

func statusSuffix(resp Response) string {
	if sc, ok := resp.(statusCoder); ok {
		return fmt.Sprintf(" (HTTP %d)", sc.StatusCode())
	}
	return ""
}

// transportReason inspects an error returned by the HTTP client.
func transportReason(err error) TransportReason {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		dnsErr      *net.DNSError
		netErr      net.Error
	)

	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return ReasonCertificate
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &dnsErr):
		return ReasonDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout
	default:
		return ReasonConnection
	}
}
