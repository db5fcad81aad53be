// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Juneo-io/epochminter/distributor"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	operator = common.HexToAddress("0x0000000000000000000000000000000000000001")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestAuthorized(t *testing.T) {
	require := require.New(t)

	r := New(admin)
	require.NoError(r.Grant(distributor.ActionSetOperatorBps, operator))

	for _, action := range distributor.Actions {
		require.True(r.Authorized(admin, action))
		require.False(r.Authorized(stranger, action))
		require.False(r.Authorized(common.Address{}, action))
	}
	require.True(r.Authorized(operator, distributor.ActionSetOperatorBps))
	require.False(r.Authorized(operator, distributor.ActionSetDistributionDelay))

	r.Revoke(distributor.ActionSetOperatorBps, operator)
	require.False(r.Authorized(operator, distributor.ActionSetOperatorBps))

	r.Revoke(distributor.ActionSetOperatorBps, admin)
	require.True(r.Authorized(admin, distributor.ActionSetOperatorBps))
}

func TestGrantZeroAddress(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Grant(distributor.ActionSetOperatorBps, common.Address{}), errZeroAddress)
}

func TestMembersSorted(t *testing.T) {
	require := require.New(t)

	r := New(admin, operator)
	require.NoError(r.Grant(distributor.ActionSetDistributionDelay, stranger))
	require.NoError(r.Grant(distributor.ActionSetDistributionDelay, operator))

	require.Equal([]common.Address{operator, admin}, r.Admins())
	require.Equal([]common.Address{operator, stranger}, r.Members(distributor.ActionSetDistributionDelay))
	require.Empty(r.Members(distributor.ActionSetOperatorBps))
}

func TestParseGrant(t *testing.T) {
	require := require.New(t)

	action, addr, err := ParseGrant("setOperatorBps=0x0000000000000000000000000000000000000001")
	require.NoError(err)
	require.Equal(distributor.ActionSetOperatorBps, action)
	require.Equal(operator, addr)

	_, _, err = ParseGrant("setOperatorBps")
	require.ErrorIs(err, errMalformedGrant)

	_, _, err = ParseGrant("setOperatorBps=nope")
	require.ErrorIs(err, errMalformedGrant)

	_, _, err = ParseGrant("mint=0x0000000000000000000000000000000000000001")
	require.Error(err)
}
