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

// Package apps keeps registered mobile applications.
package apps

import (
	"errors"
	"sort"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var (
	// ErrNotRegistered is returned when application is not registered.
	ErrNotRegistered = errors.New("application not registered")
	// ErrAlreadyRegistered is returned when application with the same ID is already registered.
	ErrAlreadyRegistered = errors.New("application already registered")
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Application registered application.
type Application struct {
	ConnectionKey uint32             `json:"connectionKey"`
	AppID         string             `json:"appId"`
	Name          string             `json:"appName"`
	HMILevel      mobileapi.HMILevel `json:"hmiLevel"`
}

// Registry application registry.
type Registry struct {
	sync.RWMutex
	apps    map[uint32]Application
	lastKey uint32
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates application registry.
func New() (registry *Registry) {
	return &Registry{apps: make(map[uint32]Application)}
}

// Register registers application and assigns connection key to it. New application is in NONE HMI level.
func (registry *Registry) Register(appID, name string) (app Application, err error) {
	registry.Lock()
	defer registry.Unlock()

	for _, registered := range registry.apps {
		if registered.AppID == appID {
			return Application{}, aoserrors.Wrap(ErrAlreadyRegistered)
		}
	}

	registry.lastKey++

	app = Application{ConnectionKey: registry.lastKey, AppID: appID, Name: name, HMILevel: mobileapi.HMILevelNone}

	log.WithFields(log.Fields{"appID": appID, "connectionKey": app.ConnectionKey}).Debug("Register application")

	registry.apps[app.ConnectionKey] = app

	return app, nil
}

// Unregister removes application.
func (registry *Registry) Unregister(connectionKey uint32) (app Application, err error) {
	registry.Lock()
	defer registry.Unlock()

	app, ok := registry.apps[connectionKey]
	if !ok {
		return Application{}, aoserrors.Wrap(ErrNotRegistered)
	}

	log.WithFields(log.Fields{"appID": app.AppID, "connectionKey": connectionKey}).Debug("Unregister application")

	delete(registry.apps, connectionKey)

	return app, nil
}

// Get returns registered application.
func (registry *Registry) Get(connectionKey uint32) (app Application, ok bool) {
	registry.RLock()
	defer registry.RUnlock()

	app, ok = registry.apps[connectionKey]

	return app, ok
}

// SetHMILevel sets application HMI level.
func (registry *Registry) SetHMILevel(connectionKey uint32, level mobileapi.HMILevel) (err error) {
	registry.Lock()
	defer registry.Unlock()

	app, ok := registry.apps[connectionKey]
	if !ok {
		return aoserrors.Wrap(ErrNotRegistered)
	}

	log.WithFields(log.Fields{"connectionKey": connectionKey, "level": level}).Debug("Set HMI level")

	app.HMILevel = level
	registry.apps[connectionKey] = app

	return nil
}

// List returns registered applications sorted by connection key.
func (registry *Registry) List() (apps []Application) {
	registry.RLock()
	defer registry.RUnlock()

	for _, app := range registry.apps {
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].ConnectionKey < apps[j].ConnectionKey })

	return apps
}
