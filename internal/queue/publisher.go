// Package queue implements broker subscriptions and outcome publishers for the
// asynchronous transport.
package queue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pdf-extractor/internal/domain"
	apperrors "pdf-extractor/pkg/errors"
)

// HTTPPublisher publishes through the nsqd HTTP API (POST /pub?topic=).
type HTTPPublisher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPublisher creates a publisher for the nsqd HTTP address addr.
// Publishes are bounded only by the caller's context.
func NewHTTPPublisher(addr string) *HTTPPublisher {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &HTTPPublisher{
		baseURL: strings.TrimRight(addr, "/"),
		client:  &http.Client{},
	}
}

// Publish posts body to topic. Transport errors, deadline expiry and any
// status other than 200 are reported as delivery failures.
func (p *HTTPPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/pub?topic="+url.QueryEscape(topic),
		bytes.NewReader(body),
	)
	if err != nil {
		return apperrors.NewDeliveryError("failed to build publish request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return apperrors.NewDeliveryError("failed to publish to "+topic, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewDeliveryError(
			fmt.Sprintf("failed to publish to %s: status %d", topic, resp.StatusCode),
			fmt.Errorf("%w: status %d", domain.ErrPublishRejected, resp.StatusCode),
		)
	}
	return nil
}
