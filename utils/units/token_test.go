// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	require := require.New(t)

	require.Equal("1000000000000000000", Tokens(1).ToBig().String())
	require.Equal("666667000000000000000000", Tokens(666_667).ToBig().String())
	require.True(Tokens(0).IsZero())
}
