// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusJSON(t *testing.T) {
	require := require.New(t)

	statuses := []Status{
		NotMinted,
		Minted,
		Distributed,
	}
	for _, status := range statuses {
		statusJSON, err := json.Marshal(status)
		require.NoError(err)

		var parsedStatus Status
		require.NoError(json.Unmarshal(statusJSON, &parsedStatus))
		require.Equal(status, parsedStatus)
	}

	{
		status := Status(math.MaxUint8)
		_, err := json.Marshal(status)
		require.ErrorIs(err, errUnknownStatus)
	}

	{
		status := Minted
		require.NoError(json.Unmarshal([]byte("null"), &status))
		require.Equal(Minted, status)
	}

	{
		var status Status
		err := json.Unmarshal([]byte(`"Burned"`), &status)
		require.ErrorIs(err, errUnknownStatus)
	}
}

func TestStatusVerify(t *testing.T) {
	require := require.New(t)

	require.NoError(NotMinted.Verify())
	require.NoError(Minted.Verify())
	require.NoError(Distributed.Verify())

	badStatus := Status(math.MaxUint8)
	require.ErrorIs(badStatus.Verify(), errUnknownStatus)
}

func TestStatusString(t *testing.T) {
	require := require.New(t)

	require.Equal("NotMinted", NotMinted.String())
	require.Equal("Minted", Minted.String())
	require.Equal("Distributed", Distributed.String())

	badStatus := Status(math.MaxUint8)
	require.Equal("Unknown", badStatus.String())
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{from: NotMinted, to: Minted, allowed: true},
		{from: Minted, to: Distributed, allowed: true},
		{from: NotMinted, to: Distributed},
		{from: Minted, to: Minted},
		{from: Minted, to: NotMinted},
		{from: Distributed, to: Minted},
		{from: Distributed, to: Distributed},
		{from: Distributed, to: Status(3)},
	}
	for _, test := range tests {
		t.Run(test.from.String()+"->"+test.to.String(), func(t *testing.T) {
			require.Equal(t, test.allowed, test.from.CanTransitionTo(test.to))
		})
	}
}
