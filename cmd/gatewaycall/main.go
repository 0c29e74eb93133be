package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/kevin07696/soap-gateway/internal/adapters/soap"
	"github.com/kevin07696/soap-gateway/internal/config"
	pkghttp "github.com/kevin07696/soap-gateway/pkg/http"
	"github.com/kevin07696/soap-gateway/pkg/observability"
	"github.com/kevin07696/soap-gateway/pkg/resilience"
	"github.com/kevin07696/soap-gateway/pkg/security"
)

// Exit codes
const (
	exitSuccess     = 0
	exitFailure     = 1
	exitClientError = 2
	exitServerError = 3
	exitTransport   = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	clientType  string
	action      string
	bodyPath    string
	envFile     string
	retries     int
	metricsFile string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("gatewaycall", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.clientType, "type", "", "client type, one of the GATEWAY_ENDPOINTS keys")
	fs.StringVar(&opts.action, "action", "", "SOAPAction of the call")
	fs.StringVar(&opts.bodyPath, "body", "-", "file holding the action XML, - reads stdin")
	fs.StringVar(&opts.envFile, "env-file", "", "optional .env file")
	fs.IntVar(&opts.retries, "retries", 0, "retries for retriable failures")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.clientType == "" || opts.action == "" {
		fs.Usage()
		return nil, fmt.Errorf("-type and -action are required")
	}
	if opts.retries < 0 {
		return nil, fmt.Errorf("-retries must not be negative")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitFailure
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	body, err := readBody(opts.bodyPath, stdin)
	if err != nil {
		logger.Error("Failed to read request body", zap.String("body", opts.bodyPath), zap.Error(err))
		return exitFailure
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewGatewayMetrics(registry)
	if opts.metricsFile != "" {
		defer func() {
			if err := observability.WriteTextfile(opts.metricsFile, registry); err != nil {
				logger.Error("Failed to write metrics textfile", zap.String("path", opts.metricsFile), zap.Error(err))
			}
		}()
	}

	client, closeCredentials, err := initClient(ctx, cfg, opts.clientType, metrics, logger)
	if err != nil {
		logger.Error("Failed to initialize gateway client", zap.String("client_type", opts.clientType), zap.Error(err))
		return exitFailure
	}
	defer closeCredentials()

	policy := resilience.RetryPolicy{
		MaxRetries: opts.retries,
		Backoff:    resilience.DefaultExponentialBackoff(),
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Retrying gateway call",
				zap.String("action", opts.action),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}

	var outcome *soap.Outcome
	callErr := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = client.CallAction(ctx, opts.action, body, soap.XMLResponseFactory)
		return err
	})

	printOutcome(stdout, outcome, callErr)
	return exitCode(callErr)
}

// initClient wires the pinned HTTPS client, credentials, breaker and limiter into a soap.Client
func initClient(ctx context.Context, cfg *config.Config, clientType string, metrics *observability.GatewayMetrics, logger *zap.Logger) (*soap.Client, func(), error) {
	endpoint, err := cfg.Endpoint(clientType)
	if err != nil {
		return nil, nil, err
	}

	pool, err := pkghttp.LoadRootCA(cfg.Gateway.CAFile)
	if err != nil {
		return nil, nil, fmt.Errorf("GATEWAY_CA_FILE: %w", err)
	}
	httpCfg := pkghttp.GatewayClientConfig(pool)
	httpCfg.Timeout = cfg.Gateway.Timeout
	httpClient, err := pkghttp.NewPinnedHTTPClient(httpCfg)
	if err != nil {
		return nil, nil, err
	}

	credentials, closeCredentials, err := initCredentials(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	clientOpts := []soap.Option{
		soap.WithRecorder(metrics),
		soap.WithMaxResponseBytes(cfg.Gateway.MaxResponseBytes),
	}
	if cfg.Gateway.RateLimit > 0 {
		clientOpts = append(clientOpts, soap.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.Gateway.RateLimit), cfg.Gateway.RateBurst)))
	}
	if cfg.Gateway.CircuitBreaker {
		breakerCfg := resilience.DefaultCircuitBreakerConfig(clientType)
		if cfg.Gateway.BreakerMaxFailures > 0 {
			breakerCfg.MaxFailures = uint32(cfg.Gateway.BreakerMaxFailures)
		}
		breakerCfg.OpenTimeout = cfg.Gateway.BreakerTimeout
		breakerCfg.OnStateChange = metrics.BreakerStateChange
		clientOpts = append(clientOpts, soap.WithCircuitBreaker(resilience.NewCircuitBreaker(breakerCfg)))
	}

	client, err := soap.NewClient(soap.Config{Type: clientType, Endpoint: endpoint}, httpClient, credentials, security.NewZapLogger(logger), clientOpts...)
	if err != nil {
		closeCredentials()
		return nil, nil, err
	}
	return client, closeCredentials, nil
}

// initLogger initializes the logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" && !cfg.Logger.Development {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// stdout carries the outcome
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

func readBody(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}

	// sent verbatim; whitespace alone is rejected but never stripped
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("request body is empty")
	}
	return string(data), nil
}

func printOutcome(w io.Writer, outcome *soap.Outcome, err error) {
	if outcome == nil {
		kind := "error"
		var transportErr *soap.TransportError
		if errors.As(err, &transportErr) {
			kind = "transport_error"
		}
		fmt.Fprintf(w, "outcome: %s\nerror: %v\n", kind, err)
		return
	}

	fmt.Fprintf(w, "outcome: %s\n", outcome.Kind)
	fmt.Fprintf(w, "client_type: %s\naction: %s\nendpoint: %s\n", outcome.ClientType, outcome.Action, outcome.Endpoint)
	if outcome.Stubbed {
		fmt.Fprintln(w, "stubbed: true")
	}

	resp, ok := outcome.Response.(*soap.XMLResponse)
	if !ok {
		return
	}
	fmt.Fprintf(w, "status: %d\n", resp.StatusCode())
	if fault, ok := resp.Fault(); ok {
		fmt.Fprintf(w, "fault_code: %s\nfault_string: %s\n", fault.Code, fault.String)
	}
	fmt.Fprintf(w, "\n%s\n", resp.Body())
}

func exitCode(err error) int {
	var (
		clientErr    *soap.ClientError
		serverErr    *soap.ServerError
		transportErr *soap.TransportError
	)
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &clientErr):
		return exitClientError
	case errors.As(err, &serverErr):
		return exitServerError
	case errors.As(err, &transportErr):
		return exitTransport
	default:
		return exitFailure
	}
}
