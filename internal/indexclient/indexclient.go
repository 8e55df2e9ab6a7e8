// Package indexclient talks to the package-index collaborator that
// mirrors yank state into the public index. Calls run inside the yank
// transaction, so a failure here rolls the whole yank back; the caller
// decides whether to retry.
package indexclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenk/backoff"
	"github.com/google/uuid"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/openregistry/registry-go/internal/logutil"
	"github.com/openregistry/registry-go/internal/registry"
)

const defaultTimeout = 10 * time.Second

// Options configures the index client.
type Options struct {
	// BaseURL is the index service root, e.g. "https://index.internal".
	BaseURL string

	// Timeout bounds each notify call. Zero means the default.
	Timeout time.Duration

	// TripThreshold is the consecutive-failure count that opens the
	// breaker. Zero means the default of 5.
	TripThreshold int64

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client notifies the index service over HTTP. A circuit breaker guards
// the endpoint: after repeated failures calls fail fast without touching
// the network until the backoff window passes. It satisfies
// registry.IndexNotifier.
type Client struct {
	baseURL string
	timeout time.Duration
	hc      *http.Client
	breaker *circuit.Breaker
	log     *slog.Logger
}

// New creates a Client for the index service at opts.BaseURL.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	threshold := opts.TripThreshold
	if threshold <= 0 {
		threshold = 5
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	return &Client{
		baseURL: opts.BaseURL,
		timeout: timeout,
		hc:      hc,
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    expBackoff,
			ShouldTrip: circuit.ThresholdTripFunc(threshold),
		}),
		log: logutil.NoopIfNil(opts.Logger),
	}
}

// yankEvent is the wire form of one yank-state change.
type yankEvent struct {
	EventID string `json:"event_id"`
	Crate   string `json:"crate"`
	Version string `json:"vers"`
	Yanked  bool   `json:"yanked"`
}

// NotifyYankStateChanged publishes the new yank flag for one crate
// version. Transport failures, non-2xx responses, and an open breaker
// all fail the call; the caller treats any failure as transient.
func (c *Client) NotifyYankStateChanged(ctx context.Context, crateName, version string, yanked bool) error {
	if !c.breaker.Ready() {
		return fmt.Errorf("index service circuit open")
	}
	return c.breaker.Call(func() error {
		return c.put(ctx, crateName, version, yanked)
	}, 0)
}

func (c *Client) put(ctx context.Context, crateName, version string, yanked bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	event := yankEvent{
		EventID: uuid.NewString(),
		Crate:   crateName,
		Version: version,
		Yanked:  yanked,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/index/crates/%s/%s/yanked",
		c.baseURL, registry.EncodeFileSafeName(crateName), version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("notifying index of yank state change",
		"crate", crateName, "version", version, "yanked", yanked, "event_id", event.EventID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("index service returned status %d", resp.StatusCode)
	}
	return nil
}

// Tripped reports whether the breaker is currently open, for health
// reporting.
func (c *Client) Tripped() bool {
	return c.breaker.Tripped()
}
