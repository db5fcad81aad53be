// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errUnknownStatus = errors.New("unknown status")

	_ json.Marshaler   = NotMinted
	_ json.Unmarshaler = (*Status)(nil)
	_ fmt.Stringer     = NotMinted
)

// Status is the distribution progress of a single epoch.
type Status uint8

// List of possible status values:
// [NotMinted] The epoch has no reward yet
// [Minted] The reward exists and the operator share has been paid
// [Distributed] The staking share has been pushed to the rewards sink
const (
	NotMinted Status = iota
	Minted
	Distributed
)

func (s Status) MarshalJSON() ([]byte, error) {
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == "null" {
		return nil
	}
	switch str {
	case `"NotMinted"`:
		*s = NotMinted
	case `"Minted"`:
		*s = Minted
	case `"Distributed"`:
		*s = Distributed
	default:
		return fmt.Errorf("%w: %s", errUnknownStatus, str)
	}
	return nil
}

// Verify that this is a valid status.
func (s Status) Verify() error {
	switch s {
	case NotMinted, Minted, Distributed:
		return nil
	default:
		return errUnknownStatus
	}
}

// CanTransitionTo reports whether an epoch in status [s] may move to [next].
// Epochs only ever advance by exactly one step.
func (s Status) CanTransitionTo(next Status) bool {
	return s.Verify() == nil && next.Verify() == nil && next == s+1
}

func (s Status) String() string {
	switch s {
	case NotMinted:
		return "NotMinted"
	case Minted:
		return "Minted"
	case Distributed:
		return "Distributed"
	default:
		return "Unknown"
	}
}
