// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openmined/sbenv/lib/netutil"
)

// statusEndpoint is the daemon control API's status path.
const statusEndpoint = "/v1/status"

// defaultProbeTimeout bounds a single health probe.
const defaultProbeTimeout = 3 * time.Second

// Prober checks whether the daemon's control API answers. Tests
// substitute fakes.
type Prober interface {
	Probe(ctx context.Context, baseURL string) Health
}

// NewProber returns the production HTTP prober. A zero timeout
// selects the default.
func NewProber(timeout time.Duration) Prober {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return httpProber{client: &http.Client{Timeout: timeout}}
}

type httpProber struct {
	client *http.Client
}

// Probe issues one GET against the status endpoint. 200 means the
// API is up, and 401 equally so: the API is reachable and wants the
// token, which is still evidence the daemon started. Any other
// status is unhealthy; no response at all is unreachable.
func (prober httpProber) Probe(ctx context.Context, baseURL string) Health {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(baseURL, "/")+statusEndpoint, nil)
	if err != nil {
		return HealthUnreachable
	}
	response, err := prober.client.Do(request)
	if err != nil {
		return HealthUnreachable
	}
	defer response.Body.Close()
	netutil.Drain(response.Body)

	switch response.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		return HealthHealthy
	default:
		return HealthUnhealthy
	}
}
