package pubsub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent = "fedbookd-webhook"
	// maxErrorBody caps the portion of a rejected delivery response that
	// ends up in the returned error.
	maxErrorBody = 512
)

// webhookClient posts published messages to subscriber endpoints. Every
// delivery is bounded by the client timeout and any 2xx status is accepted.
type webhookClient struct {
	http    *http.Client
	timeout time.Duration
}

func newWebhookClient(timeout time.Duration) *webhookClient {
	return &webhookClient{
		http: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		timeout: timeout,
	}
}

func (c *webhookClient) deliver(
	ctx context.Context, endpoint string, payload []byte, token string,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rs, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()

	if rs.StatusCode < http.StatusOK || rs.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(rs.Body, maxErrorBody))
		return fmt.Errorf(
			"%w %d: %s", ErrDeliveryRejected, rs.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}
	// Drain so that the connection can be reused.
	// nolint
	io.Copy(io.Discard, io.LimitReader(rs.Body, maxErrorBody))
	return nil
}

func (c *webhookClient) close() {
	c.http.CloseIdleConnections()
}
