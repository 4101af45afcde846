package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/msalah0e/h2canvas/internal/api"
	"github.com/msalah0e/h2canvas/internal/sim"
)

// ErrTransport wraps every network, HTTP or decoding failure.
var ErrTransport = errors.New("transport failure")

// AddOutcome is the result of AddComponent.
type AddOutcome struct {
	Accepted bool
	Status   string
}

// ConnectOutcome is the result of ConnectComponents.
type ConnectOutcome struct {
	Connected bool
	Status    string
	Source    string
	Target    string
	Message   string
}

// SimulateOutcome is the result of Simulate.
type SimulateOutcome struct {
	Complete bool
	Status   string
	Results  *sim.Report
}

// ResetOutcome is the result of Reset. A decoded reply is always a success.
type ResetOutcome struct {
	Status string
}

// Client talks to the plant service. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger

	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero means no timeout. It applies to
// whichever HTTP client the options end up with, whatever their order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout, c.hasTimeout = d, true }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasTimeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// AddComponent registers a component. The service acknowledges with a
// status containing "added".
func (c *Client) AddComponent(ctx context.Context, componentType, name string) (AddOutcome, error) {
	var reply api.StatusResponse
	req := api.AddComponentRequest{Type: componentType, Name: name}
	if err := c.post(ctx, api.PathAddComponent, req, &reply); err != nil {
		return AddOutcome{}, err
	}
	return AddOutcome{
		Accepted: strings.Contains(reply.Status, api.AddedMarker),
		Status:   reply.Status,
	}, nil
}

// ConnectComponents links source to target.
func (c *Client) ConnectComponents(ctx context.Context, source, target string) (ConnectOutcome, error) {
	var reply api.ConnectResponse
	req := api.ConnectRequest{Source: source, Target: target}
	if err := c.post(ctx, api.PathConnectComponents, req, &reply); err != nil {
		return ConnectOutcome{}, err
	}
	return ConnectOutcome{
		Connected: reply.Status == api.StatusConnected,
		Status:    reply.Status,
		Source:    reply.Source,
		Target:    reply.Target,
		Message:   reply.Message,
	}, nil
}

// Simulate runs the plant simulation.
func (c *Client) Simulate(ctx context.Context) (SimulateOutcome, error) {
	var reply api.SimulateResponse
	if err := c.post(ctx, api.PathSimulate, nil, &reply); err != nil {
		return SimulateOutcome{}, err
	}
	return SimulateOutcome{
		Complete: reply.Status == api.StatusSimulationComplete,
		Status:   reply.Status,
		Results:  reply.Results,
	}, nil
}

// Reset clears the service's plant.
func (c *Client) Reset(ctx context.Context) (ResetOutcome, error) {
	var reply api.StatusResponse
	if err := c.post(ctx, api.PathReset, nil, &reply); err != nil {
		return ResetOutcome{}, err
	}
	return ResetOutcome{Status: reply.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrTransport, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("remote request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: POST %s: %s: %s", ErrTransport, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, path, err)
	}
	return nil
}
