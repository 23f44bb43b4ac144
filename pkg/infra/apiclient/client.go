package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/common"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/integration"
	"github.com/variantlab/configcore/pkg/infra/httpx"
	"github.com/variantlab/configcore/pkg/infra/metrics"
	"github.com/variantlab/configcore/pkg/infra/settings"
)

const tokenPrefix = "Token "

// Request is one fully-substituted outbound call: method, URL and JSON body
// have all placeholders resolved before it reaches the gateway.
type Request struct {
	Method    string
	URL       string
	Body      []byte
	AuthValue string
}

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

//go:generate mockery --name=Caller --dir=. --output=./mocks --filename=api_caller_mock.go --case=underscore --with-expecter
type Caller interface {
	Do(ctx context.Context, descriptor *integration.ApiDescriptor, req *Request) (*Response, error)
}

type client struct {
	logger          *logrus.Logger
	httpClient      *http.Client
	settings        settings.Store
	breaker         httpx.CircuitBreaker
	defaultLanguage string
}

func NewClient(
	logger *logrus.Logger,
	httpClient *http.Client,
	settingsStore settings.Store,
	defaultLanguage string,
) Caller {
	return &client{
		logger:          logger,
		httpClient:      httpClient,
		settings:        settingsStore,
		breaker:         httpx.NewCircuitBreaker("external-api", 30*time.Second, 5),
		defaultLanguage: defaultLanguage,
	}
}

// Do sends the request once and retries on the configured status codes with
// a fixed, context-cancellable delay. Transport errors are never retried;
// they propagate to the caller. After exhausting retries the last failing
// response is returned rather than an error.
func (c *client) Do(ctx context.Context, descriptor *integration.ApiDescriptor, req *Request) (*Response, error) {
	headers, err := c.buildHeaders(ctx, descriptor, req)
	if err != nil {
		return nil, err
	}

	policy, err := c.settings.RetryPolicy(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, descriptor.Kind, req, headers)
	if err != nil {
		return nil, err
	}
	if policy.Count == 0 || !policy.ShouldRetry(resp.StatusCode) {
		return resp, nil
	}

	for attempt := 1; attempt <= policy.Count; attempt++ {
		c.logger.WithFields(logrus.Fields{
			"integration": descriptor.Name,
			"status":      resp.StatusCode,
			"attempt":     attempt,
		}).Warn("retrying external API call")
		metrics.ExternalAPIRetries.Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Delay):
		}

		resp, err = c.send(ctx, descriptor.Kind, req, headers)
		if err != nil {
			return nil, err
		}
		if !policy.ShouldRetry(resp.StatusCode) {
			break
		}
	}
	return resp, nil
}

func (c *client) buildHeaders(ctx context.Context, descriptor *integration.ApiDescriptor, req *Request) (http.Header, error) {
	headers := http.Header{}

	switch descriptor.AuthType {
	case integration.AuthTypeNone:
	case integration.AuthTypeToken:
		headers.Set(common.AuthorizationHeader, tokenPrefix+req.AuthValue)
	default:
		// OAuth2 is recognized but unsupported; fail before constructing
		// any header.
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthNotImplemented, descriptor.AuthType)
	}

	if lang := c.settings.String(ctx, settings.KeyLanguageCode, c.defaultLanguage); lang != "" {
		headers.Set(common.AcceptLanguageHeader, lang)
	}
	if len(req.Body) > 0 {
		headers.Set("Content-Type", "application/json")
	}
	return headers, nil
}

func (c *client) send(ctx context.Context, kind string, req *Request, headers http.Header) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()
	var httpResp *http.Response
	err = c.breaker.Execute(func() error {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		httpResp = resp
		return nil
	})
	metrics.ExternalAPIDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues(kind, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	outcome := metrics.OutcomeFailure
	if httpResp.StatusCode >= http.StatusOK && httpResp.StatusCode < http.StatusMultipleChoices {
		outcome = metrics.OutcomeSuccess
	}
	metrics.ExternalAPICalls.WithLabelValues(kind, outcome).Inc()

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}, nil
}
