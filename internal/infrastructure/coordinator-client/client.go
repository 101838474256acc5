package coordinatorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	"github.com/tdex-network/fedbook/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

const (
	bookPath   = "/api/book/"
	limitsPath = "/api/limits/"
	infoPath   = "/api/info/"
)

type client struct {
	httpClient *httpClient
	limiter    ratelimit.Limiter

	lock     *sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient returns a coordinator client whose requests are paced to at most
// rps per second, or unlimited if rps is not positive. Every host is guarded
// by its own circuit breaker.
func NewClient(
	requestTimeout time.Duration, torProxy string, rps int,
) (ports.CoordinatorClient, error) {
	httpClient, err := newHTTPClient(requestTimeout, torProxy)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}

	return &client{
		httpClient: httpClient,
		limiter:    limiter,
		lock:       &sync.Mutex{},
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}, nil
}

func (c *client) GetBook(
	ctx context.Context, baseURL string,
) ([]domain.PublicOrder, error) {
	status, body, err := c.get(ctx, baseURL, bookPath)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var resp map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
		}
		if _, ok := resp["not_found"]; ok {
			return []domain.PublicOrder{}, nil
		}
		return nil, ErrMalformedResponse
	}
	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	orders := make([]domain.PublicOrder, 0)
	if err := json.Unmarshal(trimmed, &orders); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	return orders, nil
}

type limit struct {
	Price             decimal.Decimal `json:"price"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	MaxBondlessAmount decimal.Decimal `json:"max_bondless_amount"`
}

func (c *client) GetLimits(
	ctx context.Context, baseURL string,
) (domain.LimitList, error) {
	status, body, err := c.get(ctx, baseURL, limitsPath)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	resp := make(map[string]limit)
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	limits := make(domain.LimitList, len(resp))
	for key, l := range resp {
		code, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid currency code %s", ErrMalformedResponse, key)
		}
		limits[code] = domain.Limit{
			Code:              code,
			Price:             l.Price,
			MinAmount:         l.MinAmount,
			MaxAmount:         l.MaxAmount,
			MaxBondlessAmount: l.MaxBondlessAmount,
		}
	}
	return limits, nil
}

func (c *client) GetInfo(
	ctx context.Context, baseURL string,
) (*domain.Info, error) {
	status, body, err := c.get(ctx, baseURL, infoPath)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, body); err != nil {
		return nil, err
	}

	info := &domain.Info{}
	if err := json.Unmarshal(body, info); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}
	return info, nil
}

// get performs the request through the breaker of the target host. Only
// transport errors and 5xx responses count as breaker failures.
func (c *client) get(
	ctx context.Context, baseURL, path string,
) (int, []byte, error) {
	if baseURL == "" {
		return 0, nil, ErrMissingURL
	}
	u := strings.TrimSuffix(baseURL, "/") + path
	parsed, err := url.Parse(u)
	if err != nil {
		return 0, nil, err
	}

	type response struct {
		status int
		body   []byte
	}

	res, err := c.breaker(parsed.Host).Execute(func() (interface{}, error) {
		c.limiter.Take()

		status, body, err := c.httpClient.get(ctx, u)
		if err != nil {
			return nil, err
		}
		if status >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w %d: %s", ErrBadStatus, status, body)
		}
		return response{status, body}, nil
	})
	if err != nil {
		return 0, nil, err
	}

	resp := res.(response)
	return resp.status, resp.body, nil
}

func (c *client) breaker(host string) *gobreaker.CircuitBreaker {
	c.lock.Lock()
	defer c.lock.Unlock()

	cb, ok := c.breakers[host]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker(host)
		c.breakers[host] = cb
	}
	return cb
}

func checkStatus(status int, body []byte) error {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("%w %d: %s", ErrBadStatus, status, body)
	}
	return nil
}
