// Package client is a Go client for the detector HTTP API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/server"
)

const DefaultClientTimeout = 30 // seconds

// Client configuration
type ClientConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	ZstdCompression bool
}

type Client struct {
	config      *ClientConfig
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// NewClient creates a client for the server at config.BaseURL
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil || config.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	if config.APIKey != "" {
		restyClient.SetHeader(server.APIKeyHeader, config.APIKey)
	}

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}
	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if c.encoder != nil {
		req.SetHeader("Accept-Encoding", "zstd")
	}
	return req
}

// do sends one request and unwraps the StdResponse envelope into Resp.
func do[Resp any](c *Client, req *resty.Request, method, path string, body any) (Resp, error) {
	var zero Resp

	if body != nil {
		jsonData, err := sonic.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		if c.encoder != nil {
			req.SetHeader("Content-Encoding", "zstd")
			req.SetBody(c.encoder.EncodeAll(jsonData, nil))
		} else {
			req.SetBody(jsonData)
		}
	}

	log.Trace().Str("method", method).Str("path", path).Msg("sending request")

	resp, err := req.Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("failed to make request: %w", err)
	}

	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return zero, fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	var out server.StdResponse[Resp]
	if err := sonic.Unmarshal(responseBody, &out); err != nil {
		if resp.IsError() {
			return zero, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(responseBody))
		}
		return zero, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}
	if out.Error != nil {
		return zero, &APIError{StatusCode: resp.StatusCode(), Message: *out.Error}
	}
	if resp.IsError() {
		return zero, &APIError{StatusCode: resp.StatusCode(), Message: string(responseBody)}
	}
	return out.Body, nil
}

// APIError is an error reported by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) Health(ctx context.Context) (server.HealthResponse, error) {
	return do[server.HealthResponse](c, c.request(ctx), resty.MethodGet, "/health", nil)
}

func (c *Client) Score(ctx context.Context, req server.ScoreRequest) (server.ScoreResponse, error) {
	return do[server.ScoreResponse](c, c.request(ctx), resty.MethodPost, "/score", req)
}

func (c *Client) Analyze(ctx context.Context, text string) (server.AnalyzeResponse, error) {
	return do[server.AnalyzeResponse](c, c.request(ctx), resty.MethodPost, "/analyze", server.TextRequest{Text: text})
}

func (c *Client) Chunked(ctx context.Context, text string) (server.ChunkResponse, error) {
	return do[server.ChunkResponse](c, c.request(ctx), resty.MethodPost, "/chunked", server.TextRequest{Text: text})
}

func (c *Client) Calibrate(ctx context.Context, req server.CalibrateRequest) (server.CalibrateResponse, error) {
	return do[server.CalibrateResponse](c, c.request(ctx), resty.MethodPost, "/calibrate", req)
}

func (c *Client) Evaluate(ctx context.Context, req server.EvaluateRequest) (server.EvaluateResponse, error) {
	return do[server.EvaluateResponse](c, c.request(ctx), resty.MethodPost, "/evaluate", req)
}

func (c *Client) ListRuns(ctx context.Context, limit int) ([]server.RunResponse, error) {
	req := c.request(ctx).SetQueryParam("limit", strconv.Itoa(limit))
	return do[[]server.RunResponse](c, req, resty.MethodGet, "/runs", nil)
}

func (c *Client) GetRun(ctx context.Context, id string) (server.RunResponse, error) {
	return do[server.RunResponse](c, c.request(ctx), resty.MethodGet, "/runs/"+url.PathEscape(id), nil)
}
