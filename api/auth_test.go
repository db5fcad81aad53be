// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestNewTokenInvalid(t *testing.T) {
	_, err := NewToken(nil, testAdmin, time.Now(), time.Hour)
	require.ErrorIs(t, err, errEmptySecret)

	_, err = NewToken(testSecret, testAdmin, time.Now(), 0)
	require.ErrorIs(t, err, errNonPositiveLifetime)
}

func TestAuthenticatorCaller(t *testing.T) {
	require := require.New(t)

	a := newAuthenticator(testSecret)
	token, err := NewToken(testSecret, testAdmin, time.Now(), time.Hour)
	require.NoError(err)

	caller, err := a.caller(token)
	require.NoError(err)
	require.Equal(testAdmin, caller)

	expired, err := NewToken(testSecret, testAdmin, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(err)
	_, err = a.caller(expired)
	require.Error(err)

	_, err = newAuthenticator(nil).caller(token)
	require.ErrorIs(err, errAuthDisabled)
}

func TestAuthenticatorRejectsSubject(t *testing.T) {
	require := require.New(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(err)

	_, err = newAuthenticator(testSecret).caller(token)
	require.ErrorIs(err, errInvalidSubject)
}

func TestAuthenticatorRejectsAlgorithm(t *testing.T) {
	require := require.New(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: testAdmin.Hex(),
	}).SignedString(testSecret)
	require.NoError(err)

	_, err = newAuthenticator(testSecret).caller(token)
	require.Error(err)
}

func TestAuthenticatorWrap(t *testing.T) {
	a := newAuthenticator(testSecret)
	var seen common.Address
	handler := a.wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = Caller(r.Context())
	}))

	token, err := NewToken(testSecret, testAdmin, time.Now(), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedCaller common.Address
	}{
		{
			name:           "anonymous",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bearer",
			header:         bearerPrefix + token,
			expectedStatus: http.StatusOK,
			expectedCaller: testAdmin,
		},
		{
			name:           "malformed",
			header:         "Basic " + token,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid",
			header:         bearerPrefix + "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)
			seen = common.Address{}

			r := httptest.NewRequest(http.MethodPost, DistributorEndpoint, nil)
			if test.header != "" {
				r.Header.Set("Authorization", test.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(test.expectedStatus, w.Code)
			require.Equal(test.expectedCaller, seen)
		})
	}
}
