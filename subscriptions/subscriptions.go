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

// Package subscriptions keeps vehicle data subscriptions shared by applications.
package subscriptions

import (
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Subscribe results.
const (
	NewlySubscribed SubscribeResult = iota
	AlreadySubscribedBySameApp
	AlreadySubscribedByOtherApp
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrNotSubscribed is returned when application is not subscribed to parameter.
var ErrNotSubscribed = errors.New("not subscribed")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// SubscribeResult subscribe result.
type SubscribeResult int

// Registry vehicle data subscription registry.
type Registry struct {
	sync.Mutex
	params map[string]*entry
}

// Entry is created unconfirmed by the first subscriber and confirmed when HMI accepts the subscription.
type entry struct {
	apps      []uint32
	confirmed bool
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

func (result SubscribeResult) String() string {
	return [...]string{"newly subscribed", "already subscribed by same app", "already subscribed by other app"}[result]
}

// New creates subscription registry.
func New() (registry *Registry) {
	return &Registry{params: make(map[string]*entry)}
}

// Subscribe subscribes application to parameter. Only NewlySubscribed requires HMI subscription.
func (registry *Registry) Subscribe(appID uint32, param string) (result SubscribeResult) {
	registry.Lock()
	defer registry.Unlock()

	defer func() {
		log.WithFields(log.Fields{"appID": appID, "param": param, "result": result}).Debug("Subscribe")
	}()

	item, ok := registry.params[param]
	if !ok {
		registry.params[param] = &entry{apps: []uint32{appID}}

		return NewlySubscribed
	}

	if item.hasApp(appID) {
		return AlreadySubscribedBySameApp
	}

	item.apps = append(item.apps, appID)

	return AlreadySubscribedByOtherApp
}

// Confirm marks parameter subscription as accepted by HMI.
func (registry *Registry) Confirm(param string) {
	registry.Lock()
	defer registry.Unlock()

	if item, ok := registry.params[param]; ok {
		item.confirmed = true
	}
}

// Restore returns application subscription kept by HMI after failed unsubscription. Entry created here is
// confirmed, existing entry keeps its state.
func (registry *Registry) Restore(appID uint32, param string) {
	registry.Lock()
	defer registry.Unlock()

	log.WithFields(log.Fields{"appID": appID, "param": param}).Debug("Restore subscription")

	item, ok := registry.params[param]
	if !ok {
		registry.params[param] = &entry{apps: []uint32{appID}, confirmed: true}

		return
	}

	if !item.hasApp(appID) {
		item.apps = append(item.apps, appID)
	}
}

// Unsubscribe unsubscribes application from parameter. Returns true if parameter has no more subscribers and
// requires HMI unsubscription.
func (registry *Registry) Unsubscribe(appID uint32, param string) (last bool, err error) {
	registry.Lock()
	defer registry.Unlock()

	item, ok := registry.params[param]
	if !ok || !item.hasApp(appID) {
		return false, ErrNotSubscribed
	}

	item.removeApp(appID)

	log.WithFields(log.Fields{"appID": appID, "param": param}).Debug("Unsubscribe")

	if len(item.apps) != 0 {
		return false, nil
	}

	delete(registry.params, param)

	return true, nil
}

// Rollback removes subscriptions rejected by HMI. Not confirmed parameters are removed with all applications
// joined them meanwhile, these applications are returned per parameter.
func (registry *Registry) Rollback(appID uint32, params []string) (revoked map[string][]uint32) {
	registry.Lock()
	defer registry.Unlock()

	revoked = make(map[string][]uint32)

	for _, param := range params {
		item, ok := registry.params[param]
		if !ok || !item.hasApp(appID) {
			continue
		}

		log.WithFields(log.Fields{"appID": appID, "param": param}).Debug("Rollback subscription")

		item.removeApp(appID)

		if !item.confirmed && len(item.apps) != 0 {
			revoked[param] = item.apps
			item.apps = nil
		}

		if len(item.apps) == 0 {
			delete(registry.params, param)
		}
	}

	return revoked
}

// RemoveApp removes all application subscriptions. Returns confirmed parameters left without subscribers.
func (registry *Registry) RemoveApp(appID uint32) (orphaned []string) {
	registry.Lock()
	defer registry.Unlock()

	for param, item := range registry.params {
		if !item.hasApp(appID) {
			continue
		}

		item.removeApp(appID)

		if len(item.apps) != 0 {
			continue
		}

		delete(registry.params, param)

		if item.confirmed {
			orphaned = append(orphaned, param)
		}
	}

	sort.Strings(orphaned)

	log.WithFields(log.Fields{"appID": appID, "orphaned": orphaned}).Debug("Remove app subscriptions")

	return orphaned
}

// IsSubscribed returns true if application is subscribed to parameter.
func (registry *Registry) IsSubscribed(appID uint32, param string) bool {
	registry.Lock()
	defer registry.Unlock()

	item, ok := registry.params[param]

	return ok && item.hasApp(appID)
}

// Subscribers returns applications subscribed to parameter in subscription order.
func (registry *Registry) Subscribers(param string) (apps []uint32) {
	registry.Lock()
	defer registry.Unlock()

	if item, ok := registry.params[param]; ok {
		apps = append(apps, item.apps...)
	}

	return apps
}

// AppSubscriptions returns sorted list of parameters application is subscribed to.
func (registry *Registry) AppSubscriptions(appID uint32) (params []string) {
	registry.Lock()
	defer registry.Unlock()

	for param, item := range registry.params {
		if item.hasApp(appID) {
			params = append(params, param)
		}
	}

	sort.Strings(params)

	return params
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (item *entry) hasApp(appID uint32) bool {
	for _, id := range item.apps {
		if id == appID {
			return true
		}
	}

	return false
}

func (item *entry) removeApp(appID uint32) {
	for i, id := range item.apps {
		if id == appID {
			item.apps = append(item.apps[:i:i], item.apps[i+1:]...)

			return
		}
	}
}
