// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	_ Listener = Listeners(nil)
	_ Listener = noopListener{}

	errUnknownEventType = errors.New("unknown event type")

	eventTypes = []EventType{
		EventMinted,
		EventDistributed,
		EventOperatorBpsChanged,
		EventOperatorRewardsManagerChanged,
		EventDistributionDelayChanged,
		EventOperatorSharePaid,
	}
)

type EventType uint8

const (
	EventMinted EventType = iota + 1
	EventDistributed
	EventOperatorBpsChanged
	EventOperatorRewardsManagerChanged
	EventDistributionDelayChanged
	EventOperatorSharePaid
)

func (t EventType) String() string {
	switch t {
	case EventMinted:
		return "Minted"
	case EventDistributed:
		return "Distributed"
	case EventOperatorBpsChanged:
		return "OperatorBpsChanged"
	case EventOperatorRewardsManagerChanged:
		return "OperatorRewardsManagerChanged"
	case EventDistributionDelayChanged:
		return "DistributionDelayChanged"
	case EventOperatorSharePaid:
		return "OperatorSharePaid"
	default:
		return "Unknown"
	}
}

func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *EventType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for _, eventType := range eventTypes {
		if eventType.String() == name {
			*t = eventType
			return nil
		}
	}
	return fmt.Errorf("%w: %q", errUnknownEventType, name)
}

// Event is a signal produced by a successful distributor call. Only the
// fields relevant to the event type are set.
type Event struct {
	ID   uuid.UUID `json:"id"`
	Type EventType `json:"type"`
	// Time the event was emitted, in unix seconds.
	Time uint64 `json:"time"`

	Epoch             uint64          `json:"epoch,omitempty"`
	Amount            *big.Int        `json:"amount,omitempty"`
	OperatorShare     *big.Int        `json:"operatorShare,omitempty"`
	StakingShare      *big.Int        `json:"stakingShare,omitempty"`
	OperatorBps       uint16          `json:"operatorBps"`
	Manager           *common.Address `json:"manager,omitempty"`
	DistributionDelay uint64          `json:"distributionDelay,omitempty"`

	// OperatorShareOwed is set on Minted events whose operator share stayed
	// in custody.
	OperatorShareOwed bool `json:"operatorShareOwed,omitempty"`
}

// Listener is notified of every event, in emission order. OnEvent is called
// while the distributor is held and must not call back into it.
type Listener interface {
	OnEvent(Event)
}

// Listeners notifies every listener in order.
type Listeners []Listener

func (l Listeners) OnEvent(e Event) {
	for _, listener := range l {
		listener.OnEvent(e)
	}
}

type noopListener struct{}

func (noopListener) OnEvent(Event) {}
