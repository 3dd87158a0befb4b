// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/metrics"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

const (
	DefaultQPS     = 5
	DefaultBurst   = 10
	DefaultTimeout = 30 * time.Second

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 32 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	// QPS and Burst configure the client side rate limiter.
	QPS   float64
	Burst int
	// Timeout bounds each request. It is ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client talks to the platform REST API. It is safe for concurrent use; all
// requests share one rate limiter.
type Client struct {
	baseURL *url.URL
	token   string
	client  *http.Client
	limiter *rate.Limiter
	log     logr.Logger
	metrics *metrics.Metrics
}

// NewClient returns a Client for the platform at opts.BaseURL.
func NewClient(log logr.Logger, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid platform base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid platform base URL %q: scheme must be http or https", opts.BaseURL)
	}

	if opts.QPS <= 0 {
		opts.QPS = DefaultQPS
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL: base,
		token:   opts.Token,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.QPS), opts.Burst),
		log:     log.WithName("platform"),
		metrics: opts.Metrics,
	}, nil
}

// FieldExceptionMap fetches the complete field exception map of an entity
// type. The response is classified as success, empty-response or api-failed.
// On failure the returned response is the api-failed response and err says
// why; callers are expected to degrade rather than abort.
func (c *Client) FieldExceptionMap(ctx context.Context, entityType string) (*settings.FieldMapResponse, error) {
	if strings.TrimSpace(entityType) == "" {
		return settings.FailedFieldMapResponse(), schoolerrors.ErrInvalidEntityType
	}

	start := time.Now()
	resp, err := c.fetchFieldExceptionMap(ctx, entityType)
	if err != nil {
		resp = settings.FailedFieldMapResponse()
	}
	c.metrics.ObservePlatformRequest(entityType, string(resp.Status), time.Since(start))
	c.log.V(1).Info("field exception map fetched", "entity", entityType, "status", resp.Status, "paths", len(resp.Data))
	return resp, err
}

func (c *Client) fetchFieldExceptionMap(ctx context.Context, entityType string) (*settings.FieldMapResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, schoolerrors.NewPlatformError(entityType, 0, err)
	}

	endpoint := c.baseURL.JoinPath("entityFieldExceptions", url.PathEscape(entityType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, schoolerrors.NewPlatformError(entityType, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, schoolerrors.NewPlatformError(entityType, 0, fmt.Errorf("%w: %v", schoolerrors.ErrAPIUnavailable, err))
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.log.Error(err, "failed to close the http response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, schoolerrors.NewPlatformError(entityType, httpResp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, schoolerrors.NewPlatformError(entityType, httpResp.StatusCode, schoolerrors.ErrUnauthorized)
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		return nil, schoolerrors.NewPlatformError(entityType, httpResp.StatusCode,
			fmt.Errorf("%w: status %d: %s", schoolerrors.ErrAPIUnavailable, httpResp.StatusCode, strings.TrimSpace(string(body))))
	}

	data, err := decodeFieldMap(body)
	if err != nil {
		return nil, schoolerrors.NewPlatformError(entityType, httpResp.StatusCode, err)
	}
	return settings.NewFieldMapResponse(data), nil
}

// decodeFieldMap reads a flat path -> method object. An object wrapping the
// map under "data" is accepted too. Non string methods are skipped.
func decodeFieldMap(body []byte) (map[string]conflict.Method, error) {
	out := map[string]conflict.Method{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode field exception map: %w", err)
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		if raw == nil {
			return out, nil
		}
		return nil, fmt.Errorf("failed to decode field exception map: expected an object, got %T", raw)
	}
	if errMsg, hasError := obj["error"]; hasError {
		return nil, fmt.Errorf("%w: %v", schoolerrors.ErrAPIUnavailable, errMsg)
	}
	if data, ok := obj["data"].(map[string]interface{}); ok {
		obj = data
	}
	for path, value := range obj {
		if method, ok := value.(string); ok && path != "" {
			out[path] = conflict.Method(method)
		}
	}
	return out, nil
}
