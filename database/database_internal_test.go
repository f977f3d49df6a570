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

package database

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var (
	tmpDir string
	db     *Database
)

/***********************************************************************************************************************
 * Init
 **********************************************************************************************************************/

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: false,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		FullTimestamp:    true,
	})
	log.SetLevel(log.DebugLevel)
	log.SetOutput(os.Stdout)
}

/***********************************************************************************************************************
 * Main
 **********************************************************************************************************************/

func TestMain(m *testing.M) {
	var err error

	tmpDir, err = os.MkdirTemp("", "hmibroker_")
	if err != nil {
		log.Fatalf("Error create temporary dir: %s", err)
	}

	db, err = New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		log.Fatalf("Can't create database: %s", err)
	}

	ret := m.Run()

	db.Close()

	if err = os.RemoveAll(tmpDir); err != nil {
		log.Fatalf("Error deleting tmp dir: %s", err)
	}

	os.Exit(ret)
}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestNewErrors(t *testing.T) {
	if dbLocal, err := New("/sys/rooooot/test.db"); err == nil {
		dbLocal.Close()
		t.Fatal("Expecting error with no access rights")
	}
}

func TestVehicleDataSubscriptions(t *testing.T) {
	type testItem struct {
		appID  string
		params []string
	}

	data := []testItem{
		{appID: "app0", params: []string{"gps", "speed"}},
		{appID: "app1", params: []string{"rpm"}},
		{appID: "app0", params: []string{"fuelLevel", "gps", "speed"}},
		{appID: "app2", params: []string{"odometer", "prndl"}},
	}

	for _, item := range data {
		if err := db.SetVehicleDataSubscriptions(item.appID, item.params); err != nil {
			t.Fatalf("Can't set subscriptions: %s", err)
		}

		params, err := db.GetVehicleDataSubscriptions(item.appID)
		if err != nil {
			t.Fatalf("Can't get subscriptions: %s", err)
		}

		if !reflect.DeepEqual(params, item.params) {
			t.Errorf("Wrong subscriptions: %v", params)
		}
	}

	appIDs, err := db.GetVehicleDataApps()
	if err != nil {
		t.Fatalf("Can't get apps: %s", err)
	}

	if !reflect.DeepEqual(appIDs, []string{"app0", "app1", "app2"}) {
		t.Errorf("Wrong apps: %v", appIDs)
	}

	for _, appID := range appIDs {
		if err = db.SetVehicleDataSubscriptions(appID, nil); err != nil {
			t.Fatalf("Can't clear subscriptions: %s", err)
		}

		params, err := db.GetVehicleDataSubscriptions(appID)
		if err != nil {
			t.Fatalf("Can't get subscriptions: %s", err)
		}

		if params != nil {
			t.Errorf("Unexpected subscriptions: %v", params)
		}
	}
}

func TestNotStoredApp(t *testing.T) {
	params, err := db.GetVehicleDataSubscriptions("unknown")
	if err != nil {
		t.Fatalf("Can't get subscriptions: %s", err)
	}

	if params != nil {
		t.Errorf("Unexpected subscriptions: %v", params)
	}
}

func TestReopen(t *testing.T) {
	name := filepath.Join(tmpDir, "reopen.db")

	dbLocal, err := New(name)
	if err != nil {
		t.Fatalf("Can't create database: %s", err)
	}

	if err = dbLocal.SetVehicleDataSubscriptions("app0", []string{"gps"}); err != nil {
		t.Fatalf("Can't set subscriptions: %s", err)
	}

	dbLocal.Close()

	if dbLocal, err = New(name); err != nil {
		t.Fatalf("Can't open database: %s", err)
	}
	defer dbLocal.Close()

	params, err := dbLocal.GetVehicleDataSubscriptions("app0")
	if err != nil {
		t.Fatalf("Can't get subscriptions: %s", err)
	}

	if !reflect.DeepEqual(params, []string{"gps"}) {
		t.Errorf("Wrong subscriptions: %v", params)
	}
}

func TestVersionMismatch(t *testing.T) {
	name := filepath.Join(tmpDir, "version.db")

	dbLocal, err := New(name)
	if err != nil {
		t.Fatalf("Can't create database: %s", err)
	}

	if _, err = dbLocal.sql.Exec("UPDATE config SET version = ?", CurrentVersion+1); err != nil {
		t.Fatalf("Can't update version: %s", err)
	}

	dbLocal.Close()

	if dbLocal, err = New(name); !errors.Is(err, ErrVersionMismatch) {
		if err == nil {
			dbLocal.Close()
		}

		t.Fatalf("Wrong error: %v", err)
	}
}

func TestMultiThread(t *testing.T) {
	const numIterations = 1000

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < numIterations; i++ {
			if err := db.SetVehicleDataSubscriptions("multi", []string{strconv.Itoa(i)}); err != nil {
				t.Errorf("Can't set subscriptions: %s", err)
			}
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < numIterations; i++ {
			if _, err := db.GetVehicleDataSubscriptions("multi"); err != nil {
				t.Errorf("Can't get subscriptions: %s", err)
			}
		}
	}()

	wg.Wait()
}
