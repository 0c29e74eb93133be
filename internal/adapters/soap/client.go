package soap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kevin07696/soap-gateway/internal/adapters/ports"
)

// Config identifies the remote service a Client talks to.
type Config struct {
	// Type names the client type, e.g. "payment" or "recurring". Override slots are keyed by it.
	Type     string
	Endpoint Endpoint
}

// Client invokes actions on one SOAP service of the gateway.
type Client struct {
	clientType  string
	endpoint    Endpoint
	envelope    Envelope
	transport   *Transport
	credentials ports.CredentialsProvider
	overrides   *OverrideSlot
	logger      ports.Logger
	recorder    Recorder
	breaker     Breaker
	limiter     *rate.Limiter
	callTimeout time.Duration
}

// NewClient creates a Client with dependency injection.
// httpClient must verify the gateway certificate; see pkg/http.NewPinnedHTTPClient.
func NewClient(cfg Config, httpClient ports.HTTPClient, credentials ports.CredentialsProvider, logger ports.Logger, opts ...Option) (*Client, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("client type is required")
	}
	if err := cfg.Endpoint.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint for %s client: %w", cfg.Type, err)
	}
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credentials provider is required")
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	o := options{
		envelope: DefaultEnvelope,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.overrides == nil {
		o.overrides = NewOverrideRegistry()
	}

	return &Client{
		clientType:  cfg.Type,
		endpoint:    cfg.Endpoint,
		envelope:    o.envelope,
		transport:   NewTransport(httpClient, logger, o.maxResponseBytes),
		credentials: credentials,
		overrides:   o.overrides.Slot(cfg.Type),
		logger:      logger,
		recorder:    o.recorder,
		breaker:     o.breaker,
		limiter:     o.limiter,
		callTimeout: o.callTimeout,
	}, nil
}

// Type returns the client type
func (c *Client) Type() string {
	return c.clientType
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// SetOverride makes resp the result of the next call on any client of this type.
// Last write wins; overwriting an unconsumed response is logged.
func (c *Client) SetOverride(resp Response) {
	if c.overrides.Set(resp) {
		c.logger.Warn("Replaced unconsumed override response",
			ports.String("client_type", c.clientType),
		)
	}
}

// ClearOverride drops a pending override response for this client type.
func (c *Client) ClearOverride() {
	c.overrides.Clear()
}

// CallAction wraps body in the envelope and posts it to action on the client's endpoint.
// newResponse wraps the raw exchange; nil means XMLResponseFactory.
//
// A pending override is consumed and returned as a stubbed success before anything else happens.
// On a client or server error the outcome is returned together with a *ClientError or *ServerError.
// Transport failures return a nil outcome and a *TransportError.
func (c *Client) CallAction(ctx context.Context, action string, body string, newResponse ResponseFactory) (*Outcome, error) {
	if resp, ok := c.overrides.Take(); ok {
		c.logger.Info("Returning override response for gateway action",
			ports.String("client_type", c.clientType),
			ports.String("action", action),
		)
		c.recorder.ObserveOverride(c.clientType, action)
		return &Outcome{
			Kind:       OutcomeSuccess,
			Response:   resp,
			Action:     action,
			Endpoint:   c.endpoint,
			ClientType: c.clientType,
			Stubbed:    true,
		}, nil
	}

	if newResponse == nil {
		newResponse = XMLResponseFactory
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	creds, err := c.credentials.Credentials(ctx)
	if err != nil {
		c.logger.Error("Failed to resolve gateway credentials",
			ports.String("client_type", c.clientType),
			ports.String("action", action),
			ports.Err(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			reason := ReasonTimeout
			if ctxErr := ctx.Err(); ctxErr != nil {
				reason = transportReason(ctxErr)
			}
			return nil, c.transportError(action, reason, fmt.Errorf("rate limiter: %w", err))
		}
	}

	callID := uuid.NewString()
	c.logger.Info("Calling gateway action",
		ports.String("client_type", c.clientType),
		ports.String("action", action),
		ports.String("host", c.endpoint.Host),
		ports.Int("port", c.endpoint.Port),
		ports.String("path", c.endpoint.Path),
		ports.String("call_id", callID),
		ports.Int("body_length", len(body)),
		ports.Bool("credentials_present", creds.Complete()),
	)

	envelope := c.envelope.Wrap(body)
	startTime := time.Now()

	var (
		outcome *Outcome
		callErr error
		invoked bool
	)
	run := func() error {
		invoked = true
		outcome, callErr = c.exchange(ctx, creds, action, envelope, newResponse, callID)
		var clientErr *ClientError
		if errors.As(callErr, &clientErr) {
			return nil
		}
		return callErr
	}

	if c.breaker != nil {
		if err := c.breaker.Call(run); err != nil && !invoked {
			c.logger.Warn("Circuit breaker rejected gateway call",
				ports.String("client_type", c.clientType),
				ports.String("action", action),
				ports.String("call_id", callID),
				ports.Err(err),
			)
			c.recorder.ObserveTransportFailure(c.clientType, action, string(ReasonCircuitOpen))
			return nil, c.transportError(action, ReasonCircuitOpen, err)
		}
	} else {
		_ = run()
	}

	result := "error"
	if outcome != nil {
		result = outcome.Kind.String()
	} else {
		var transportErr *TransportError
		if errors.As(callErr, &transportErr) {
			result = "transport_error"
		}
	}
	c.recorder.ObserveCall(c.clientType, action, result, time.Since(startTime))

	return outcome, callErr
}

func (c *Client) exchange(ctx context.Context, creds ports.Credentials, action, envelope string, newResponse ResponseFactory, callID string) (*Outcome, error) {
	raw, err := c.transport.Execute(ctx, c.endpoint, creds, action, envelope)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			transportErr.ClientType = c.clientType
			c.recorder.ObserveTransportFailure(c.clientType, action, string(transportErr.Reason))
		}
		return nil, err
	}

	resp, err := newResponse(raw)
	if err != nil {
		c.logger.Error("Failed to wrap gateway response",
			ports.String("action", action),
			ports.String("call_id", callID),
			ports.Int("status_code", raw.StatusCode),
			ports.Err(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrResponseWrap, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: factory returned nil response", ErrResponseWrap)
	}

	outcome := &Outcome{
		Kind:       classify(raw.StatusCode, resp),
		Response:   resp,
		Action:     action,
		Endpoint:   c.endpoint,
		ClientType: c.clientType,
	}

	fields := []ports.Field{
		ports.String("client_type", c.clientType),
		ports.String("action", action),
		ports.String("call_id", callID),
		ports.Int("status_code", raw.StatusCode),
		ports.String("outcome", outcome.Kind.String()),
	}
	if outcome.Kind == OutcomeSuccess {
		c.logger.Info("Gateway action succeeded", fields...)
	} else {
		c.logger.Warn("Gateway action failed", fields...)
	}

	return outcome, outcome.Err()
}

func (c *Client) transportError(action string, reason TransportReason, err error) *TransportError {
	return &TransportError{
		ClientType: c.clientType,
		Action:     action,
		Endpoint:   c.endpoint,
		Reason:     reason,
		Err:        err,
	}
}
