package soap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevin07696/soap-gateway/internal/adapters/ports"
)

const (
	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	headerSOAPAction  = "SOAPAction"

	contentTypeXML     = "text/xml"
	contentTypeXMLUTF8 = "text/xml; charset=utf-8"
)

// Transport performs one authenticated POST of an envelope and captures the response.
// TLS verification is the HTTP client's job; production clients come from pkg/http.NewPinnedHTTPClient.
type Transport struct {
	httpClient       ports.HTTPClient
	logger           ports.Logger
	maxResponseBytes int64 // 0 means no limit
}

// NewTransport creates a Transport over httpClient.
func NewTransport(httpClient ports.HTTPClient, logger ports.Logger, maxResponseBytes int64) *Transport {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Transport{
		httpClient:       httpClient,
		logger:           logger,
		maxResponseBytes: maxResponseBytes,
	}
}

// Execute posts body to endpoint as action. The connection's response body is closed on every path.
// Errors are *TransportError with the ClientType left for the caller to fill in.
func (t *Transport) Execute(ctx context.Context, endpoint Endpoint, creds ports.Credentials, action string, body string) (*RawHTTPResponse, error) {
	fail := func(reason TransportReason, err error) error {
		return &TransportError{Action: action, Endpoint: endpoint, Reason: reason, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL(), strings.NewReader(body))
	if err != nil {
		return nil, fail(ReasonRequest, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set(headerAccept, contentTypeXML)
	httpReq.Header.Set(headerContentType, contentTypeXMLUTF8)
	httpReq.Header.Set(headerSOAPAction, action)
	httpReq.SetBasicAuth(creds.Username, creds.Password)

	startTime := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		reason := transportReason(err)
		t.logger.Error("Gateway exchange failed",
			ports.String("action", action),
			ports.String("endpoint", endpoint.URL()),
			ports.String("reason", string(reason)),
			ports.Duration("elapsed", time.Since(startTime)),
			ports.Err(err),
		)
		return nil, fail(reason, err)
	}
	defer httpResp.Body.Close()

	reader := io.Reader(httpResp.Body)
	if t.maxResponseBytes > 0 {
		reader = io.LimitReader(httpResp.Body, t.maxResponseBytes+1)
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		t.logger.Error("Failed to read gateway response body",
			ports.String("action", action),
			ports.Err(err),
		)
		reason := transportReason(err)
		if reason == ReasonConnection {
			reason = ReasonRead
		}
		return nil, fail(reason, fmt.Errorf("failed to read response: %w", err))
	}
	if t.maxResponseBytes > 0 && int64(len(respBody)) > t.maxResponseBytes {
		return nil, fail(ReasonRead, fmt.Errorf("response body exceeds %d bytes", t.maxResponseBytes))
	}

	t.logger.Debug("Received gateway response",
		ports.String("action", action),
		ports.Int("status_code", httpResp.StatusCode),
		ports.Int("body_length", len(respBody)),
		ports.Duration("elapsed", time.Since(startTime)),
	)

	header := httpResp.Header
	if header == nil {
		header = http.Header{}
	}

	return &RawHTTPResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     header,
		Body:       respBody,
	}, nil
}
