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

package apps_test

import (
	"errors"
	"testing"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestRegisterApp(t *testing.T) {
	registry := apps.New()

	first, err := registry.Register("navi", "Navigation")
	if err != nil {
		t.Fatalf("Can't register app: %s", err)
	}

	second, err := registry.Register("music", "Music")
	if err != nil {
		t.Fatalf("Can't register app: %s", err)
	}

	if first.ConnectionKey == second.ConnectionKey {
		t.Error("Connection keys should be unique")
	}

	if first.HMILevel != mobileapi.HMILevelNone {
		t.Errorf("Wrong initial HMI level: %s", first.HMILevel)
	}

	if _, err = registry.Register("navi", "Navigation"); !errors.Is(err, apps.ErrAlreadyRegistered) {
		t.Errorf("Wrong register error: %v", err)
	}

	if list := registry.List(); len(list) != 2 || list[0].AppID != "navi" || list[1].AppID != "music" {
		t.Errorf("Wrong apps list: %v", list)
	}
}

func TestHMILevel(t *testing.T) {
	registry := apps.New()

	app, err := registry.Register("navi", "Navigation")
	if err != nil {
		t.Fatalf("Can't register app: %s", err)
	}

	if err = registry.SetHMILevel(app.ConnectionKey, mobileapi.HMILevelFull); err != nil {
		t.Fatalf("Can't set HMI level: %s", err)
	}

	if app, _ = registry.Get(app.ConnectionKey); app.HMILevel != mobileapi.HMILevelFull {
		t.Errorf("Wrong HMI level: %s", app.HMILevel)
	}

	if err = registry.SetHMILevel(100, mobileapi.HMILevelFull); !errors.Is(err, apps.ErrNotRegistered) {
		t.Errorf("Wrong set HMI level error: %v", err)
	}
}

func TestUnregisterApp(t *testing.T) {
	registry := apps.New()

	app, err := registry.Register("navi", "Navigation")
	if err != nil {
		t.Fatalf("Can't register app: %s", err)
	}

	if _, err = registry.Unregister(app.ConnectionKey); err != nil {
		t.Fatalf("Can't unregister app: %s", err)
	}

	if _, ok := registry.Get(app.ConnectionKey); ok {
		t.Error("App should be unregistered")
	}

	if _, err = registry.Unregister(app.ConnectionKey); !errors.Is(err, apps.ErrNotRegistered) {
		t.Errorf("Wrong unregister error: %v", err)
	}

	// App may register again after unregistering
	if _, err = registry.Register("navi", "Navigation"); err != nil {
		t.Errorf("Can't register app: %s", err)
	}
}
