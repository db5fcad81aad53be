// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/Juneo-io/epochminter/distributor/status"

	utilsjson "github.com/Juneo-io/epochminter/utils/json"
)

const maxErrorBodySize = 1024

var errUnexpectedStatus = errors.New("unexpected status code")

// Client for interacting with the distributor API of a node.
type Client struct {
	uri        string
	token      string
	httpClient *http.Client
}

// NewClient returns a client of the node at [uri]. A non-empty [token]
// authenticates the calls.
func NewClient(uri string, token string) *Client {
	return &Client{
		uri:        uri,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) Mint(ctx context.Context) (*MintReply, error) {
	reply := &MintReply{}
	return reply, c.call(ctx, "mint", struct{}{}, reply)
}

func (c *Client) PayOwedOperatorShares(ctx context.Context) (int, error) {
	reply := &PayOwedOperatorSharesReply{}
	err := c.call(ctx, "payOwedOperatorShares", struct{}{}, reply)
	return int(reply.Paid), err
}

func (c *Client) GetOwedPayouts(ctx context.Context) ([]OwedPayout, error) {
	reply := &GetOwedPayoutsReply{}
	err := c.call(ctx, "getOwedPayouts", struct{}{}, reply)
	return reply.Payouts, err
}

func (c *Client) Distribute(ctx context.Context, epoch uint64) error {
	return c.call(ctx, "distribute", &EpochArgs{
		Epoch: utilsjson.Uint64(epoch),
	}, &EmptyReply{})
}

func (c *Client) SetOperatorBps(ctx context.Context, bps uint16) error {
	return c.call(ctx, "setOperatorBps", &SetOperatorBpsArgs{
		OperatorBps: utilsjson.Uint16(bps),
	}, &EmptyReply{})
}

func (c *Client) SetOperatorRewardsManager(ctx context.Context, manager common.Address) error {
	return c.call(ctx, "setOperatorRewardsManager", &SetOperatorRewardsManagerArgs{
		Manager: manager,
	}, &EmptyReply{})
}

func (c *Client) SetDistributionDelay(ctx context.Context, delay uint64) error {
	return c.call(ctx, "setDistributionDelay", &SetDistributionDelayArgs{
		DistributionDelay: utilsjson.Uint64(delay),
	}, &EmptyReply{})
}

func (c *Client) GetEpochStatus(ctx context.Context, epoch uint64) (status.Status, error) {
	reply := &GetEpochStatusReply{}
	err := c.call(ctx, "getEpochStatus", &EpochArgs{
		Epoch: utilsjson.Uint64(epoch),
	}, reply)
	return reply.Status, err
}

func (c *Client) GetClock(ctx context.Context) (*GetClockReply, error) {
	reply := &GetClockReply{}
	return reply, c.call(ctx, "getClock", struct{}{}, reply)
}

func (c *Client) GetSplit(ctx context.Context) (*GetSplitReply, error) {
	reply := &GetSplitReply{}
	return reply, c.call(ctx, "getSplit", struct{}{}, reply)
}

func (c *Client) GetPendingEpochs(ctx context.Context) (*GetPendingEpochsReply, error) {
	reply := &GetPendingEpochsReply{}
	return reply, c.call(ctx, "getPendingEpochs", struct{}{}, reply)
}

// Health returns the health report of the node. An unhealthy node is not
// an error.
func (c *Client) Health(ctx context.Context) (*HealthReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uri+HealthEndpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, readStatusError(resp)
	}
	reply := &HealthReply{}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return nil, fmt.Errorf("failed to decode health reply: %w", err)
	}
	return reply, nil
}

func (c *Client) call(ctx context.Context, method string, params interface{}, reply interface{}) error {
	body, err := json2.EncodeClientRequest(ServiceName+"."+method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri+DistributorEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", bearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to issue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("%w: %d: %s", errUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
}
