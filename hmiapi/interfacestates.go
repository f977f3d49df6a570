// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2024 Renesas Electronics Corporation.
// Copyright (C) 2024 EPAM Systems, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hmiapi

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Interface availability states.
const (
	StateNotResponse InterfaceState = iota
	StateAvailable
	StateNotAvailable
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// InterfaceState HMI interface availability state.
type InterfaceState int

// InterfaceStates keeps availability of HMI interfaces.
type InterfaceStates struct {
	sync.RWMutex
	states map[Interface]InterfaceState
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

func (state InterfaceState) String() string {
	return [...]string{"not response", "available", "not available"}[state]
}

// NewInterfaceStates creates interface states table.
func NewInterfaceStates() (states *InterfaceStates) {
	return &InterfaceStates{states: make(map[Interface]InterfaceState)}
}

// SetInterfaceState sets interface state.
func (states *InterfaceStates) SetInterfaceState(iface Interface, state InterfaceState) {
	states.Lock()
	defer states.Unlock()

	log.WithFields(log.Fields{"interface": iface, "state": state}).Debug("Set interface state")

	states.states[iface] = state
}

// GetInterfaceState returns interface state. Interfaces never reported by HMI are in StateNotResponse.
func (states *InterfaceStates) GetInterfaceState(iface Interface) (state InterfaceState) {
	states.RLock()
	defer states.RUnlock()

	return states.states[iface]
}
