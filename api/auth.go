// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v4"
)

const bearerPrefix = "Bearer "

var (
	errAuthDisabled        = errors.New("token authentication is disabled")
	errMalformedHeader     = errors.New("malformed authorization header")
	errInvalidSubject      = errors.New("token subject is not an address")
	errEmptySecret         = errors.New("empty token secret")
	errNonPositiveLifetime = errors.New("token lifetime must be positive")
)

type callerKey struct{}

// Caller returns the authenticated caller of a request. Anonymous requests
// are made by the zero address, which is never authorized.
func Caller(ctx context.Context) common.Address {
	caller, _ := ctx.Value(callerKey{}).(common.Address)
	return caller
}

// NewToken issues an HS256 token authenticating [caller] for [lifetime].
func NewToken(secret []byte, caller common.Address, now time.Time, lifetime time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errEmptySecret
	}
	if lifetime <= 0 {
		return "", errNonPositiveLifetime
	}
	claims := jwt.RegisteredClaims{
		Subject:   caller.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

type authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func newAuthenticator(secret []byte) *authenticator {
	return &authenticator{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (a *authenticator) caller(tokenStr string) (common.Address, error) {
	if len(a.secret) == 0 {
		return common.Address{}, errAuthDisabled
	}
	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(claims.Subject) {
		return common.Address{}, fmt.Errorf("%w: %q", errInvalidSubject, claims.Subject)
	}
	return common.HexToAddress(claims.Subject), nil
}

// wrap authenticates the bearer token of every request. Requests without a
// token are served anonymously and requests with an invalid token are
// rejected.
func (a *authenticator) wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			h.ServeHTTP(w, r)
			return
		}
		tokenStr, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok {
			http.Error(w, errMalformedHeader.Error(), http.StatusUnauthorized)
			return
		}
		caller, err := a.caller(tokenStr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}
