// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package distributor

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUnknownAction = errors.New("unknown action")

// Action is a privileged operation of the distributor.
type Action uint8

const (
	ActionSetOperatorBps Action = iota + 1
	ActionSetOperatorRewardsManager
	ActionSetDistributionDelay
)

// Actions lists every privileged action.
var Actions = []Action{
	ActionSetOperatorBps,
	ActionSetOperatorRewardsManager,
	ActionSetDistributionDelay,
}

func (a Action) String() string {
	switch a {
	case ActionSetOperatorBps:
		return "setOperatorBps"
	case ActionSetOperatorRewardsManager:
		return "setOperatorRewardsManager"
	case ActionSetDistributionDelay:
		return "setDistributionDelay"
	default:
		return "unknown"
	}
}

func (a Action) MarshalJSON() ([]byte, error) {
	if a.String() == "unknown" {
		return nil, fmt.Errorf("%w: %d", errUnknownAction, a)
	}
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	action, err := ParseAction(name)
	if err != nil {
		return err
	}
	*a = action
	return nil
}

// ParseAction returns the action named [name].
func ParseAction(name string) (Action, error) {
	for _, action := range Actions {
		if action.String() == name {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownAction, name)
}
