// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package e2e_test

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/Juneo-io/epochminter/api"
	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/distributor/status"

	ginkgo "github.com/onsi/ginkgo/v2"
	gomega "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("[Distributor]", ginkgo.Ordered, func() {
	var (
		require = require.New(ginkgo.GinkgoT())
		r       *runningNode
		dataDir string
	)

	ginkgo.BeforeAll(func() {
		dataDir = ginkgo.GinkgoT().TempDir()
		r = start(newConfig(dataDir, clockwork.NewFakeClockAt(time.Unix(genesisTime, 0))))
	})

	ginkgo.AfterAll(func() {
		if r != nil {
			r.stop()
		}
	})

	ginkgo.It("mints an epoch once it elapsed", func() {
		ctx, cancel := defaultContext()
		defer cancel()
		client := r.client(common.Address{})

		ginkgo.By("refusing to mint before the epoch elapsed")
		_, err := client.Mint(ctx)
		require.ErrorContains(err, distributor.ErrEpochNotReady.Error())

		ginkgo.By("minting the first epoch")
		r.clock.Advance(epochLength * time.Second)
		reply, err := client.Mint(ctx)
		require.NoError(err)
		require.Equal(uint64(genesisTime+epochLength), uint64(reply.Epoch))
		require.Equal(operator, reply.Manager)

		ginkgo.By("refusing to mint the same epoch twice")
		_, err = client.Mint(ctx)
		require.ErrorContains(err, distributor.ErrEpochNotReady.Error())
	})

	ginkgo.It("distributes every epoch exactly once", func() {
		ctx, cancel := defaultContext()
		defer cancel()
		client := r.client(common.Address{})

		ginkgo.By("refusing to distribute before the delay elapsed")
		err := client.Distribute(ctx, genesisTime+epochLength)
		require.ErrorContains(err, distributor.ErrDistributionDelayNotElapsed.Error())

		ginkgo.By("distributing the genesis epoch")
		require.NoError(client.Distribute(ctx, genesisTime))
		err = client.Distribute(ctx, genesisTime)
		require.ErrorContains(err, distributor.ErrEpochNotAvailableForDistribution.Error())

		ginkgo.By("distributing the first epoch once its delay elapsed")
		r.clock.Advance(time.Hour)
		require.NoError(client.Distribute(ctx, genesisTime+epochLength))

		pending, err := client.GetPendingEpochs(ctx)
		require.NoError(err)
		require.Empty(pending.Pending)
	})

	ginkgo.It("restricts privileged calls", func() {
		ctx, cancel := defaultContext()
		defer cancel()

		err := r.client(common.Address{}).SetOperatorBps(ctx, 2_000)
		require.ErrorContains(err, distributor.ErrUnauthorized.Error())
		err = r.client(network).SetOperatorBps(ctx, 2_000)
		require.ErrorContains(err, distributor.ErrUnauthorized.Error())

		adminClient := r.client(admin)
		require.NoError(adminClient.SetOperatorBps(ctx, 2_000))
		err = adminClient.SetDistributionDelay(ctx, 8*epochLength)
		require.ErrorContains(err, distributor.ErrDelayTooLarge.Error())
		require.NoError(adminClient.SetDistributionDelay(ctx, 7*epochLength))

		split, err := adminClient.GetSplit(ctx)
		require.NoError(err)
		require.Equal("133333400000000000000000", split.OperatorShare)
	})

	ginkgo.It("streams events", func() {
		ctx, cancel := defaultContext()
		defer cancel()

		url := "ws://" + strings.TrimPrefix(r.node.APIServer.URL(), "http://") + api.EventsEndpoint
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		require.NoError(err)
		defer conn.Close()

		// The subscription is registered asynchronously, so keep changing
		// the delay until an event arrives.
		adminClient := r.client(admin)
		events := make(chan distributor.Event, 1)
		go func() {
			defer close(events)
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event distributor.Event
			if json.Unmarshal(msg, &event) == nil {
				events <- event
			}
		}()

		delay := uint64(0)
		gomega.Eventually(func() bool {
			delay++
			if err := adminClient.SetDistributionDelay(ctx, delay); err != nil {
				return false
			}
			select {
			case event := <-events:
				return event.Type == distributor.EventDistributionDelayChanged
			case <-time.After(100 * time.Millisecond):
				return false
			}
		}).WithTimeout(10 * time.Second).Should(gomega.BeTrue())
	})

	ginkgo.It("keeps its state across restarts", func() {
		ctx, cancel := defaultContext()
		defer cancel()

		clock := r.clock
		r.stop()
		r = nil

		r = start(newConfig(dataDir, clock))
		client := r.client(common.Address{})

		for _, epoch := range []uint64{genesisTime, genesisTime + epochLength} {
			epochStatus, err := client.GetEpochStatus(ctx, epoch)
			require.NoError(err)
			require.Equal(status.Distributed, epochStatus)
		}

		split, err := client.GetSplit(ctx)
		require.NoError(err)
		require.Equal("133333400000000000000000", split.OperatorShare)
	})
})
