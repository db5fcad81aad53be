// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"

	"github.com/Juneo-io/epochminter/distributor"
)

var Noop Metrics = noopMetrics{}

type noopMetrics struct{}

func (noopMetrics) InterceptRequest(i *rpc.RequestInfo) *http.Request {
	return i.Request
}

func (noopMetrics) AfterRequest(*rpc.RequestInfo) {}

func (noopMetrics) OnEvent(distributor.Event) {}

func (noopMetrics) ObserveCall(string, time.Duration, error) {}

func (noopMetrics) SetLastRewardTimestamp(uint64) {}

func (noopMetrics) SetPendingEpochs(int) {}

func (noopMetrics) SetOwedPayouts(int) {}
