// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auth implements role based authorization of privileged
// distributor actions.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Juneo-io/epochminter/distributor"
)

var (
	_ distributor.Authorizer = (*Roles)(nil)

	errMalformedGrant = errors.New("malformed grant")
	errZeroAddress    = errors.New("zero address")
)

// Roles authorizes admins for every action and other callers for the actions
// they were granted.
type Roles struct {
	lock   sync.RWMutex
	admins map[common.Address]struct{}
	grants map[distributor.Action]map[common.Address]struct{}
}

func New(admins ...common.Address) *Roles {
	r := &Roles{
		admins: make(map[common.Address]struct{}, len(admins)),
		grants: make(map[distributor.Action]map[common.Address]struct{}),
	}
	for _, admin := range admins {
		r.admins[admin] = struct{}{}
	}
	return r
}

func (r *Roles) Authorized(caller common.Address, action distributor.Action) bool {
	if caller == (common.Address{}) {
		return false
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	if _, ok := r.admins[caller]; ok {
		return true
	}
	_, ok := r.grants[action][caller]
	return ok
}

// Grant allows [caller] to perform [action].
func (r *Roles) Grant(action distributor.Action, caller common.Address) error {
	if caller == (common.Address{}) {
		return errZeroAddress
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	members, ok := r.grants[action]
	if !ok {
		members = make(map[common.Address]struct{})
		r.grants[action] = members
	}
	members[caller] = struct{}{}
	return nil
}

// Revoke removes a grant. Admins keep every permission.
func (r *Roles) Revoke(action distributor.Action, caller common.Address) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.grants[action], caller)
}

// Admins returns the admins, sorted.
func (r *Roles) Admins() []common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return sorted(r.admins)
}

// Members returns the callers granted [action], sorted. Admins are not
// included.
func (r *Roles) Members(action distributor.Action) []common.Address {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return sorted(r.grants[action])
}

func sorted(set map[common.Address]struct{}) []common.Address {
	addrs := maps.Keys(set)
	slices.SortFunc(addrs, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return addrs
}

// ParseGrant parses a grant of the form "action=address".
func ParseGrant(grant string) (distributor.Action, common.Address, error) {
	name, addr, ok := strings.Cut(grant, "=")
	if !ok || !common.IsHexAddress(addr) {
		return 0, common.Address{}, fmt.Errorf("%w: %q", errMalformedGrant, grant)
	}
	action, err := distributor.ParseAction(strings.TrimSpace(name))
	if err != nil {
		return 0, common.Address{}, err
	}
	return action, common.HexToAddress(addr), nil
}
