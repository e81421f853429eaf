// Package gateway talks to the live-value gateway that reads devices from a
// physical PLC.
//
// Every call returns a result value. Transport, timeout and decoding failures
// are reported as Success=false with the error text; nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5000"
	DefaultTimeout = 5 * time.Second

	readPath      = "/api/read"
	readBatchPath = "/api/read_batch"

	// maxResponseBytes bounds how much of a gateway reply is read.
	maxResponseBytes = 4 << 20
)

// Config configures a Client. Zero values fall back to the defaults.
type Config struct {
	BaseURL     string
	DefaultHost string
	DefaultPort int
	Timeout     time.Duration
	Transport   string
}

// Options override the configured PLC endpoint for one call.
type Options struct {
	Host      string
	Port      int
	Timeout   time.Duration
	Transport string
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	host       string
	port       int
	timeout    time.Duration
	codec      codec
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client. An unknown transport is an error; everything else
// has a default.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	c, err := codecFor(cfg.Transport)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		host:       cfg.DefaultHost,
		port:       cfg.DefaultPort,
		timeout:    timeout,
		codec:      c,
		httpClient: &http.Client{},
		logger:     logger.With("component", "gateway"),
	}, nil
}

// BaseURL returns the gateway address requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Read fetches one device spec such as "D100:5".
func (c *Client) Read(ctx context.Context, spec string, opts Options) models.DeviceReadResult {
	addr := device.Parse(spec)
	result := models.DeviceReadResult{Label: addr.Display(), Values: []int{}}
	start := time.Now()

	host, port := c.endpoint(opts)
	req := readRequest{
		Device: addr.Class,
		Addr:   addr.Address,
		Length: addr.Length,
		IP:     host,
		Port:   port,
	}

	var resp readResponse
	if err := c.post(ctx, readPath, opts, req, &resp); err != nil {
		result.Error = err.Error()
		c.logger.Warn("gateway read failed", "spec", addr.ToSpec(), "error", err)
		metrics.ObserveGateway("read", false, time.Since(start))
		return result
	}

	if resp.Values != nil {
		result.Values = resp.Values
	}
	result.Success = succeeded(resp.Success, resp.Error)
	result.Error = resp.Error
	if !result.Success && result.Error == "" {
		result.Error = "gateway reported failure"
	}
	metrics.ObserveGateway("read", result.Success, time.Since(start))
	return result
}

// ReadBatch fetches several specs in one round trip. Results line up with
// specs by index and each carries its own success flag.
func (c *Client) ReadBatch(ctx context.Context, specs []string, opts Options) models.BatchReadResult {
	start := time.Now()
	host, port := c.endpoint(opts)

	var resp batchResponse
	err := c.post(ctx, readBatchPath, opts, batchRequest{Devices: specs, IP: host, Port: port}, &resp)
	if err == nil && resp.Error != "" && len(resp.Results) == 0 {
		err = fmt.Errorf("%s", resp.Error)
	}
	if err != nil {
		c.logger.Warn("gateway batch read failed", "devices", len(specs), "error", err)
		metrics.ObserveGateway("read_batch", false, time.Since(start))
		return failedBatch(specs, err.Error())
	}

	out := models.BatchReadResult{Results: make([]models.DeviceReadResult, 0, len(resp.Results)), Success: true}
	for i, item := range resp.Results {
		out.Results = append(out.Results, batchItemResult(specs, i, item))
	}
	for i := len(resp.Results); i < len(specs); i++ {
		out.Results = append(out.Results, models.DeviceReadResult{
			Label:  device.Parse(specs[i]).Display(),
			Values: []int{},
			Error:  "no result returned for device",
		})
	}
	// A top-level error next to item results keeps the items.
	if resp.Error != "" {
		out.Success = false
		out.Error = resp.Error
		c.logger.Warn("gateway batch read reported error", "devices", len(specs), "error", resp.Error)
	}
	metrics.ObserveGateway("read_batch", out.Success, time.Since(start))
	return out
}

func batchItemResult(specs []string, i int, item batchItem) models.DeviceReadResult {
	spec := item.Device
	if i < len(specs) {
		spec = specs[i]
	}
	r := models.DeviceReadResult{
		Label:   device.Parse(spec).Display(),
		Values:  item.Values,
		Success: succeeded(item.Success, item.Error),
		Error:   item.Error,
	}
	if r.Values == nil {
		r.Values = []int{}
	}
	if !r.Success && r.Error == "" {
		r.Error = "gateway reported failure"
	}
	return r
}

func failedBatch(specs []string, msg string) models.BatchReadResult {
	out := models.BatchReadResult{Results: make([]models.DeviceReadResult, len(specs)), Error: msg}
	for i, spec := range specs {
		out.Results[i] = models.DeviceReadResult{
			Label:  device.Parse(spec).Display(),
			Values: []int{},
			Error:  msg,
		}
	}
	return out
}

func (c *Client) endpoint(opts Options) (string, int) {
	host, port := c.host, c.port
	if h := strings.TrimSpace(opts.Host); h != "" {
		host = h
	}
	if opts.Port > 0 {
		port = opts.Port
	}
	return host, port
}

func (c *Client) post(ctx context.Context, path string, opts Options, body, out any) error {
	cdc := c.codec
	if opts.Transport != "" {
		var err error
		if cdc, err = codecFor(opts.Transport); err != nil {
			return err
		}
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := cdc.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", cdc.ContentType())
	req.Header.Set("Accept", cdc.ContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := cdc.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
