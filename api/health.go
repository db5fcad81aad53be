// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// Checker reports the health of a component. A non-nil error marks it
// unhealthy.
type Checker interface {
	HealthCheck(context.Context) (interface{}, error)
}

type CheckerFunc func(context.Context) (interface{}, error)

func (f CheckerFunc) HealthCheck(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

type HealthResult struct {
	Details interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type HealthReply struct {
	Checks  map[string]HealthResult `json:"checks"`
	Healthy bool                    `json:"healthy"`
}

type healthHandler struct {
	log    *zap.Logger
	checks map[string]Checker
}

// NewHealthHandler runs every check on each request. It responds with 503
// when any check fails.
func NewHealthHandler(log *zap.Logger, checks map[string]Checker) http.Handler {
	return &healthHandler{
		log:    log,
		checks: checks,
	}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	reply := HealthReply{
		Checks:  make(map[string]HealthResult, len(h.checks)),
		Healthy: true,
	}
	for name, checker := range h.checks {
		details, err := checker.HealthCheck(ctx)
		result := HealthResult{Details: details}
		if err != nil {
			result.Error = err.Error()
			reply.Healthy = false
		}
		reply.Checks[name] = result
	}

	w.Header().Set("Content-Type", "application/json")
	if !reply.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		h.log.Debug("failed to write health reply", zap.Error(err))
	}
}
