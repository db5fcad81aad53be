// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/Juneo-io/epochminter/distributor"
)

var (
	_ Backend = (*fakeChain)(nil)

	errNotSupported = errors.New("not supported")

	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	sinkAddr  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	network   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")

	chainID = big.NewInt(1337)
)

type call struct {
	to     common.Address
	from   common.Address
	method string
	args   []interface{}
}

// fakeChain mines every transaction immediately and records the decoded
// contract calls. Calls of the methods in [unmined] are accepted but never
// mined.
type fakeChain struct {
	lock     sync.Mutex
	abis     []abi.ABI
	calls    []call
	receipts map[common.Hash]*types.Receipt
	revert   map[string]bool
	unmined  map[string]bool
	balance  *big.Int
}

func newFakeChain(t *testing.T) *fakeChain {
	f := &fakeChain{
		receipts: make(map[common.Hash]*types.Receipt),
		revert:   make(map[string]bool),
		unmined:  make(map[string]bool),
		balance:  big.NewInt(0),
	}
	for _, def := range []string{TokenABI, RewardsSinkABI} {
		parsed, err := abi.JSON(strings.NewReader(def))
		require.NoError(t, err)
		f.abis = append(f.abis, parsed)
	}
	return f
}

func (f *fakeChain) method(data []byte) (*abi.Method, error) {
	for _, parsed := range f.abis {
		if method, err := parsed.MethodById(data); err == nil {
			return method, nil
		}
	}
	return nil, errNotSupported
}

func (*fakeChain) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.method(msg.Data)
	if err != nil {
		return nil, err
	}
	if method.Name != "balanceOf" {
		return nil, errNotSupported
	}
	return method.Outputs.Pack(f.balance)
}

func (*fakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{
		Number:  big.NewInt(1),
		BaseFee: big.NewInt(1),
	}, nil
}

func (*fakeChain) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return uint64(len(f.calls)), nil
}

func (*fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (*fakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (*fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	method, err := f.method(tx.Data())
	if err != nil {
		return err
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return err
	}
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	f.calls = append(f.calls, call{
		to:     *tx.To(),
		from:   from,
		method: method.Name,
		args:   args,
	})
	if f.unmined[method.Name] {
		return nil
	}
	status := types.ReceiptStatusSuccessful
	if f.revert[method.Name] {
		status = types.ReceiptStatusFailed
	}
	f.receipts[tx.Hash()] = &types.Receipt{
		Status: status,
		TxHash: tx.Hash(),
	}
	return nil
}

func (*fakeChain) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (*fakeChain) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errNotSupported
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func newTestSigner(t *testing.T) *Signer {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := NewSigner(key, chainID, 200_000)
	require.NoError(t, err)
	return signer
}

func TestParseKey(t *testing.T) {
	require := require.New(t)

	key, err := ParseKey("0x56289e99c94b6912bfc12adc093c9b51124f0dc54ac7a766b2bc5ccf558d8027")
	require.NoError(err)

	signer, err := NewSigner(key, chainID, 0)
	require.NoError(err)
	require.Equal(crypto.PubkeyToAddress(key.PublicKey), signer.Address())

	_, err = ParseKey("not a key")
	require.ErrorIs(err, errInvalidKey)

	_, err = NewSigner(key, nil, 0)
	require.ErrorIs(err, errNilChainID)
}

func TestToken(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	chain := newFakeChain(t)
	signer := newTestSigner(t)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)
	require.Equal(tokenAddr, token.Address())

	require.NoError(token.Mint(ctx, signer.Address(), uint256.NewInt(100)))
	require.NoError(token.Transfer(ctx, recipient, uint256.NewInt(10)))

	require.Len(chain.calls, 2)
	require.Equal("mint", chain.calls[0].method)
	require.Equal(tokenAddr, chain.calls[0].to)
	require.Equal(signer.Address(), chain.calls[0].from)
	require.Equal([]interface{}{signer.Address(), big.NewInt(100)}, chain.calls[0].args)
	require.Equal("transfer", chain.calls[1].method)
	require.Equal([]interface{}{recipient, big.NewInt(10)}, chain.calls[1].args)

	chain.balance = big.NewInt(90)
	balance, err := token.BalanceOf(ctx, signer.Address())
	require.NoError(err)
	require.Equal(uint256.NewInt(90), balance)
}

func TestTokenReverted(t *testing.T) {
	require := require.New(t)

	chain := newFakeChain(t)
	chain.revert["mint"] = true
	token, err := NewToken(tokenAddr, chain, newTestSigner(t))
	require.NoError(err)

	err = token.Mint(context.Background(), recipient, uint256.NewInt(1))
	require.ErrorIs(err, errTxReverted)
}

func TestSink(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	chain := newFakeChain(t)
	signer := newTestSigner(t)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)
	sink, err := NewSink(sinkAddr, chain, signer, token)
	require.NoError(err)

	metadata, err := distributor.EncodeMetadata(1_700_000_000)
	require.NoError(err)
	require.NoError(sink.DistributeRewards(ctx, network, tokenAddr, uint256.NewInt(90), metadata))

	require.Len(chain.calls, 2)
	require.Equal("approve", chain.calls[0].method)
	require.Equal([]interface{}{sinkAddr, big.NewInt(90)}, chain.calls[0].args)
	require.Equal("distributeRewards", chain.calls[1].method)
	require.Equal(sinkAddr, chain.calls[1].to)
	require.Equal([]interface{}{network, tokenAddr, big.NewInt(90), metadata}, chain.calls[1].args)
}

func TestSinkApproveFailure(t *testing.T) {
	require := require.New(t)

	chain := newFakeChain(t)
	chain.revert["approve"] = true
	signer := newTestSigner(t)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)
	sink, err := NewSink(sinkAddr, chain, signer, token)
	require.NoError(err)

	err = sink.DistributeRewards(context.Background(), network, tokenAddr, uint256.NewInt(1), nil)
	require.ErrorIs(err, errTxReverted)
	require.Len(chain.calls, 1)
}

func TestNilBackend(t *testing.T) {
	_, err := NewToken(tokenAddr, nil, nil)
	require.ErrorIs(t, err, errNilContract)
}

func TestSinkDistributionUnconfirmed(t *testing.T) {
	require := require.New(t)

	chain := newFakeChain(t)
	chain.unmined["distributeRewards"] = true
	signer := newTestSigner(t)
	signer.SetConfirmTimeout(50 * time.Millisecond)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)
	sink, err := NewSink(sinkAddr, chain, signer, token)
	require.NoError(err)

	// The caller giving up doesn't stop the sent transaction from being
	// waited for.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sink.DistributeRewards(ctx, network, tokenAddr, uint256.NewInt(1), nil)
	require.ErrorIs(err, distributor.ErrOutcomeUnknown)
	require.ErrorIs(err, errUnconfirmed)
	require.Len(chain.calls, 2)
}

func TestSinkApprovalUnconfirmed(t *testing.T) {
	require := require.New(t)

	chain := newFakeChain(t)
	chain.unmined["approve"] = true
	signer := newTestSigner(t)
	signer.SetConfirmTimeout(50 * time.Millisecond)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)
	sink, err := NewSink(sinkAddr, chain, signer, token)
	require.NoError(err)

	err = sink.DistributeRewards(context.Background(), network, tokenAddr, uint256.NewInt(1), nil)
	require.ErrorIs(err, errUnconfirmed)
	require.NotErrorIs(err, distributor.ErrOutcomeUnknown)
	require.Len(chain.calls, 1)
}

func TestTokenTransferUnconfirmed(t *testing.T) {
	require := require.New(t)

	chain := newFakeChain(t)
	chain.unmined["transfer"] = true
	signer := newTestSigner(t)
	signer.SetConfirmTimeout(50 * time.Millisecond)
	token, err := NewToken(tokenAddr, chain, signer)
	require.NoError(err)

	err = token.Transfer(context.Background(), recipient, uint256.NewInt(1))
	require.ErrorIs(err, distributor.ErrOutcomeUnknown)
}
