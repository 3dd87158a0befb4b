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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	schoolerrors "github.com/schooldiff/schooldiff/internal/errors"
	"github.com/schooldiff/schooldiff/pkg/conflict"
	"github.com/schooldiff/schooldiff/pkg/metrics"
	"github.com/schooldiff/schooldiff/pkg/settings"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, m *metrics.Metrics) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(logr.Discard(), Options{
		BaseURL: server.URL + "/api/v1",
		Token:   "secret",
		QPS:     100,
		Burst:   100,
		Metrics: m,
	})
	require.NoError(t, err)
	return c
}

func TestFieldExceptionMap(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus settings.FieldMapStatus
		wantData   map[string]conflict.Method
		wantErr    error
	}{
		{
			name:       "flat map",
			status:     http.StatusOK,
			body:       `{"sectionCode": "alwaysInstitution", "times.$.timeBlockId": "alwaysCoursedog", "bad": 3}`,
			wantStatus: settings.FieldMapStatusSuccess,
			wantData: map[string]conflict.Method{
				"sectionCode":         conflict.AlwaysInstitution,
				"times.$.timeBlockId": conflict.AlwaysCoursedog,
			},
		},
		{
			name:       "wrapped map",
			status:     http.StatusOK,
			body:       `{"data": {"sectionCode": "alwaysInstitution"}}`,
			wantStatus: settings.FieldMapStatusSuccess,
			wantData:   map[string]conflict.Method{"sectionCode": conflict.AlwaysInstitution},
		},
		{
			name:       "empty object",
			status:     http.StatusOK,
			body:       `{}`,
			wantStatus: settings.FieldMapStatusEmptyResponse,
			wantData:   map[string]conflict.Method{},
		},
		{
			name:       "empty body",
			status:     http.StatusOK,
			body:       ``,
			wantStatus: settings.FieldMapStatusEmptyResponse,
			wantData:   map[string]conflict.Method{},
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"message": "expired"}`,
			wantStatus: settings.FieldMapStatusAPIFailed,
			wantData:   map[string]conflict.Method{},
			wantErr:    schoolerrors.ErrUnauthorized,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `boom`,
			wantStatus: settings.FieldMapStatusAPIFailed,
			wantData:   map[string]conflict.Method{},
			wantErr:    schoolerrors.ErrAPIUnavailable,
		},
		{
			name:       "error payload",
			status:     http.StatusOK,
			body:       `{"error": "not configured"}`,
			wantStatus: settings.FieldMapStatusAPIFailed,
			wantData:   map[string]conflict.Method{},
			wantErr:    schoolerrors.ErrAPIUnavailable,
		},
		{
			name:       "not json",
			status:     http.StatusOK,
			body:       `<html>`,
			wantStatus: settings.FieldMapStatusAPIFailed,
			wantData:   map[string]conflict.Method{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth, gotMethod string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotMethod = r.Method
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			resp, err := c.FieldExceptionMap(context.Background(), "sections")
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantData, resp.Data)

			if tt.wantStatus == settings.FieldMapStatusAPIFailed {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr), err.Error())
				}
				var platformErr *schoolerrors.PlatformError
				require.True(t, errors.As(err, &platformErr))
				assert.Equal(t, "sections", platformErr.Entity)
				assert.Equal(t, tt.status, platformErr.Status)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, "/api/v1/entityFieldExceptions/sections", gotPath)
			assert.Equal(t, "Bearer secret", gotAuth)
			assert.Equal(t, http.MethodPost, gotMethod)
		})
	}
}

func TestFieldExceptionMap_InvalidEntity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, nil)

	resp, err := c.FieldExceptionMap(context.Background(), "  ")
	assert.True(t, errors.Is(err, schoolerrors.ErrInvalidEntityType))
	assert.True(t, resp.Failed())
}

func TestFieldExceptionMap_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(logr.Discard(), Options{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	resp, err := c.FieldExceptionMap(context.Background(), "sections")
	assert.True(t, errors.Is(err, schoolerrors.ErrAPIUnavailable))
	assert.True(t, resp.Failed())
}

func TestFieldExceptionMap_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := c.FieldExceptionMap(ctx, "sections")
	assert.Error(t, err)
	assert.True(t, resp.Failed())
}

func TestFieldExceptionMap_Metrics(t *testing.T) {
	m := metrics.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"a": "alwaysCoursedog"}`))
	}, m)

	_, err := c.FieldExceptionMap(context.Background(), "sections")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "schooldiff_platform_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(logr.Discard(), Options{})
	assert.Error(t, err)

	_, err = NewClient(logr.Discard(), Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(logr.Discard(), Options{BaseURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(DefaultQPS), c.limiter.Limit())
	assert.Equal(t, DefaultBurst, c.limiter.Burst())
}
