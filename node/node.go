// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node runs a distributor together with everything driving it.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Juneo-io/epochminter/adapters/evm"
	"github.com/Juneo-io/epochminter/adapters/memory"
	"github.com/Juneo-io/epochminter/api"
	"github.com/Juneo-io/epochminter/database/manager"
	"github.com/Juneo-io/epochminter/distributor"
	"github.com/Juneo-io/epochminter/distributor/auth"
	"github.com/Juneo-io/epochminter/distributor/keeper"
	"github.com/Juneo-io/epochminter/distributor/metrics"
	"github.com/Juneo-io/epochminter/distributor/state"
	"github.com/Juneo-io/epochminter/distributor/traced"
	"github.com/Juneo-io/epochminter/genesis"
	"github.com/Juneo-io/epochminter/trace"
	"github.com/Juneo-io/epochminter/utils/constants"
)

var errMintOverdue = errors.New("mint is overdue")

// Node is a running distributor instance.
type Node struct {
	Log    *zap.Logger
	Config *Config

	clock    clockwork.Clock
	db       *manager.VersionedDatabase
	registry *prometheus.Registry
	tracer   trace.Tracer
	// ethClient is only set with the EVM backend.
	ethClient *ethclient.Client

	// lock serializes every call to [Distributor].
	lock        sync.Mutex
	Distributor distributor.Distributor
	logEvents   atomic.Bool

	hub       *api.Hub
	keeper    *keeper.Keeper
	APIServer *api.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

// New returns a node ready to be dispatched. On failure, everything opened
// so far is closed.
func New(ctx context.Context, config *Config, log *zap.Logger) (*Node, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	n := &Node{
		Log:    log,
		Config: config,
		clock:  config.Clock,
	}
	if n.clock == nil {
		n.clock = clockwork.NewRealClock()
	}
	n.logEvents.Store(true)

	if err := n.init(ctx); err != nil {
		if shutdownErr := n.Shutdown(); shutdownErr != nil {
			log.Error("failed to close partially initialized node", zap.Error(shutdownErr))
		}
		return nil, err
	}
	return n, nil
}

func (n *Node) init(ctx context.Context) error {
	n.Log.Info("initializing node",
		zap.Stringer("networkID", networkName(n.Config.NetworkID)),
		zap.String("capabilities", n.Config.Capabilities.Backend),
	)

	db, err := manager.Open(n.Config.DatabaseBackend, n.Config.DataDir, n.Log)
	if err != nil {
		return err
	}
	n.db = db

	n.tracer, err = trace.New(n.Config.TraceConfig)
	if err != nil {
		return fmt.Errorf("couldn't initialize tracer: %w", err)
	}

	n.registry = prometheus.NewRegistry()
	if err := n.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := n.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}
	distributorMetrics, err := metrics.New(constants.AppName, n.registry)
	if err != nil {
		return fmt.Errorf("couldn't initialize metrics: %w", err)
	}

	params := &n.Config.Params
	genesisState, err := genesis.State(n.Config.Genesis, params, uint64(n.clock.Now().Unix()))
	if err != nil {
		return err
	}
	s, err := state.New(n.db.Database, genesisState, params.EpochLengthSeconds(), n.Log)
	if err != nil {
		return fmt.Errorf("couldn't initialize state: %w", err)
	}

	authorizer := auth.New(n.Config.Genesis.Admins...)
	for _, grant := range n.Config.Grants {
		action, caller, err := auth.ParseGrant(grant)
		if err != nil {
			return err
		}
		if err := authorizer.Grant(action, caller); err != nil {
			return err
		}
	}

	token, sink, custody, err := n.initCapabilities(ctx, s)
	if err != nil {
		return err
	}

	n.hub = api.NewHub(n.Log, n.Config.APIConfig.AllowedOrigins)
	d, err := distributor.New(distributor.Backend{
		Config: distributor.Config{
			MintAmount:               params.MintAmount,
			DistributionDelayMaximum: params.DistributionDelayMaximumSeconds(),
			Network:                  n.Config.Capabilities.Network,
			Custody:                  custody,
		},
		State:      s,
		Token:      traced.NewToken(token, n.tracer),
		Sink:       traced.NewRewardsSink(sink, n.tracer),
		Authorizer: authorizer,
		Schedule:   distributor.FixedSchedule(params.EpochLengthSeconds()),
		Clock:      n.clock,
		Listener: distributor.Listeners{
			distributor.NewLogger(n.Log, &n.logEvents),
			distributorMetrics,
			n.hub,
		},
		Log: n.Log,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize distributor: %w", err)
	}
	n.Distributor = metrics.NewDistributor(
		traced.NewDistributor(d, n.tracer),
		distributorMetrics,
	)

	if n.Config.KeeperEnabled {
		n.keeper, err = keeper.New(
			n.Config.KeeperConfig,
			n.Log.Named("keeper"),
			&n.lock,
			n.Distributor,
			n.clock,
		)
		if err != nil {
			return fmt.Errorf("couldn't initialize keeper: %w", err)
		}
	}

	return n.initAPIServer(distributorMetrics)
}

func (n *Node) initCapabilities(ctx context.Context, s state.State) (distributor.Token, distributor.RewardsSink, common.Address, error) {
	config := &n.Config.Capabilities
	if config.Backend == MemoryBackend {
		n.Log.Warn("using in-memory token and rewards sink, balances are lost on restart")
		token := memory.NewToken(config.Token, config.Custody)
		// Custody starts with the staking rewards it still owes.
		for _, epoch := range s.PendingEpochs() {
			entry, _ := s.GetEpoch(epoch)
			if err := token.Mint(ctx, config.Custody, entry.StakingShare); err != nil {
				return nil, nil, common.Address{}, err
			}
		}
		return token, memory.NewSink(config.Sink, token), config.Custody, nil
	}

	client, err := ethclient.DialContext(ctx, config.EVM.RPCURL)
	if err != nil {
		return nil, nil, common.Address{}, fmt.Errorf("couldn't dial %s: %w", config.EVM.RPCURL, err)
	}
	n.ethClient = client

	chainID := config.EVM.ChainID
	if chainID == nil {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			return nil, nil, common.Address{}, fmt.Errorf("couldn't fetch chain ID: %w", err)
		}
	}
	key, err := evm.ParseKey(config.EVM.PrivateKey)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	signer, err := evm.NewSigner(key, chainID, config.EVM.GasLimit)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	signer.SetConfirmTimeout(config.EVM.ConfirmTimeout)
	token, err := evm.NewToken(config.Token, client, signer)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	sink, err := evm.NewSink(config.Sink, client, signer, token)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	n.Log.Info("using EVM capabilities",
		zap.Stringer("chainID", chainID),
		zap.Stringer("custody", signer.Address()),
		zap.Stringer("token", config.Token),
		zap.Stringer("sink", config.Sink),
	)
	return token, sink, signer.Address(), nil
}

func (n *Node) initAPIServer(interceptor metrics.APIInterceptor) error {
	listener, err := api.Listen(n.Config.APIConfig)
	if err != nil {
		return err
	}
	n.APIServer = api.NewServer(n.Log, n.Config.APIConfig, listener)

	handler, err := api.NewRPCHandler(api.NewService(&n.lock, n.Distributor, n.Log), interceptor)
	if err != nil {
		return err
	}
	return errors.Join(
		n.APIServer.AddRoute(api.DistributorEndpoint, handler),
		n.APIServer.AddRoute(api.MetricsEndpoint, promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{})),
		n.APIServer.AddRoute(api.HealthEndpoint, api.NewHealthHandler(n.Log, map[string]api.Checker{
			"distributor": n,
		})),
		n.APIServer.AddStreamRoute(api.EventsEndpoint, n.hub),
	)
}

// Dispatch serves the API and runs the keeper until [ctx] is done or either
// of them fails.
func (n *Node) Dispatch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(n.APIServer.Dispatch)
	if n.keeper != nil {
		g.Go(func() error {
			return n.keeper.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		n.hub.Close()
		return n.APIServer.Shutdown()
	})
	return g.Wait()
}

// HealthCheck fails when the keeper is expected to mint but an epoch has
// been overdue for more than a whole epoch.
func (n *Node) HealthCheck(context.Context) (interface{}, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	clock := n.Distributor.Clock()
	details := map[string]interface{}{
		"lastRewardTimestamp": clock.LastRewardTimestamp,
		"nextEpochTimestamp":  clock.NextEpochTimestamp,
		"pendingEpochs":       len(n.Distributor.PendingEpochs()),
		"owedPayouts":         len(n.Distributor.OwedPayouts()),
	}
	if n.keeper == nil || clock.Now < clock.MintAllowedTimestamp {
		return details, nil
	}
	if clock.Now > clock.NextEpochTimestamp && clock.Now-clock.NextEpochTimestamp >= clock.EpochLength {
		return details, fmt.Errorf("%w: next epoch %d elapsed at %d",
			errMintOverdue,
			clock.NextEpochTimestamp,
			clock.Now,
		)
	}
	return details, nil
}

// Shutdown releases the resources of the node. It must only be called once
// Dispatch returned, or if it was never called.
func (n *Node) Shutdown() error {
	n.shutdownOnce.Do(func() {
		n.Log.Info("shutting down node")

		var errs []error
		if n.APIServer != nil {
			errs = append(errs, n.APIServer.Close())
		}
		if n.ethClient != nil {
			n.ethClient.Close()
		}
		if n.tracer != nil {
			errs = append(errs, n.tracer.Close())
		}
		if n.db != nil {
			errs = append(errs, n.db.Close())
		}
		n.shutdownErr = errors.Join(errs...)
	})
	return n.shutdownErr
}

type networkName uint32

func (id networkName) String() string {
	return constants.NetworkName(uint32(id))
}
