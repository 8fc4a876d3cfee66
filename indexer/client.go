package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/omni/bridge-explorer/entity"
	"github.com/omni/bridge-explorer/logging"
	"github.com/omni/bridge-explorer/query"
	"github.com/omni/bridge-explorer/utils"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
	MaxRetryDelay      = 30 * time.Second

	queryBridgeOperations = "bridge_operation"
	maxErrorBodySize      = 4096
)

var (
	ErrBadStatus   = errors.New("indexer responded with non-success status")
	ErrEmptyData   = errors.New("indexer response has no data")
	ErrRateLimiter = errors.New("can't reserve rate limiter token")
)

type Client interface {
	URL() string
	FetchOperations(ctx context.Context, filter entity.Filter) ([]*entity.RawOperation, error)
}

type Options struct {
	Timeout      time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	RPS          float64
	Burst        int
	DefaultLimit int
	HTTPClient   *http.Client
	Logger       logging.Logger
}

type graphQLClient struct {
	url          string
	timeout      time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	defaultLimit int
	limiter      *rate.Limiter
	httpClient   *http.Client
	logger       logging.Logger
}

type graphQLError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data *struct {
		BridgeOperation []*entity.RawOperation `json:"bridge_operation"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

func NewClient(url string, opts Options) Client {
	c := &graphQLClient{
		url:          url,
		timeout:      opts.Timeout,
		maxAttempts:  opts.MaxAttempts,
		retryDelay:   opts.RetryDelay,
		defaultLimit: opts.DefaultLimit,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.defaultLimit <= 0 {
		c.defaultLimit = query.DefaultLimit
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logging.New()
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c
}

func (c *graphQLClient) URL() string {
	return c.url
}

func (c *graphQLClient) FetchOperations(ctx context.Context, filter entity.Filter) ([]*entity.RawOperation, error) {
	req, err := query.Build(filter, c.defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("can't build bridge operations query: %w", err)
	}
	if len(req.Ignored) > 0 {
		c.logger.WithField("ignored", req.Ignored).Warn("more than one identity filter supplied, extra filters ignored")
	}
	var env envelope
	if err = c.do(ctx, queryBridgeOperations, req, &env); err != nil {
		return nil, err
	}
	return env.Data.BridgeOperation, nil
}

// do executes one logical request, retrying transport failures with
// exponentially growing delay. Protocol errors are returned immediately.
func (c *graphQLClient) do(ctx context.Context, queryName string, req *query.Request, env *envelope) (err error) {
	defer ObserveDuration(c.url, queryName)()
	defer func() {
		ObserveError(c.url, queryName, err)
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("can't encode graphql request: %w", err)
	}
	requestID := uuid.NewString()
	logger := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"query":      queryName,
	})

	backoff := utils.Backoff{Initial: c.retryDelay, Max: MaxRetryDelay}
	for attempt := 1; ; attempt++ {
		err = c.attempt(ctx, queryName, requestID, body, env)
		if err == nil {
			return nil
		}
		if !entity.IsRetryable(err) || attempt >= c.maxAttempts {
			logger.WithError(err).WithField("attempt", attempt).Error("indexer request failed")
			return err
		}
		delay := backoff.Next()
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("indexer request failed, retrying")
		if utils.ContextSleep(ctx, delay) == nil {
			return entity.NewTransportError(queryName, ctx.Err())
		}
	}
}

func (c *graphQLClient) attempt(ctx context.Context, queryName, requestID string, body []byte, env *envelope) error {
	RequestAttempts.WithLabelValues(c.url, queryName).Inc()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return entity.NewTransportError(queryName, fmt.Errorf("%s: %w", err, ErrRateLimiter))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("can't create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return entity.NewTransportError(queryName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entity.NewTransportError(queryName, statusError(resp))
	}

	*env = envelope{}
	if err = json.NewDecoder(resp.Body).Decode(env); err != nil {
		return entity.NewTransportError(queryName, fmt.Errorf("can't decode response envelope: %w", err))
	}
	if len(env.Errors) > 0 {
		return entity.NewProtocolError(queryName, errors.New(env.Errors[0].Message))
	}
	if env.Data == nil {
		return entity.NewProtocolError(queryName, ErrEmptyData)
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s (status %d): %w", payload.Error, resp.StatusCode, ErrBadStatus)
	}
	return fmt.Errorf("status %d: %w", resp.StatusCode, ErrBadStatus)
}
