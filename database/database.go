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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	_ "github.com/mattn/go-sqlite3" // ignore lint
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	busyTimeout = 60000
	journalMode = "WAL"
	syncMode    = "NORMAL"
)

// CurrentVersion database schema version.
const CurrentVersion = 1

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrNotExist is returned when requested entry not exist in DB.
var ErrNotExist = errors.New("entry does not exist")

// ErrVersionMismatch is returned when DB has unsupported schema version.
var ErrVersionMismatch = errors.New("version mismatch")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Database structure with database information.
type Database struct {
	sync.Mutex

	sql *sql.DB
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates new database handle.
func New(name string) (db *Database, err error) {
	log.WithField("name", name).Debug("Open database")

	if err = os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	sqlite, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=%s&_sync=%s",
		name, busyTimeout, journalMode, syncMode))
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	db = &Database{sql: sqlite}

	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if err = db.createConfigTable(); err != nil {
		return nil, err
	}

	version, err := db.getVersion()
	if err != nil {
		return nil, err
	}

	if version != CurrentVersion {
		return nil, aoserrors.Wrap(ErrVersionMismatch)
	}

	if err = db.createVehicleDataTable(); err != nil {
		return nil, err
	}

	return db, nil
}

// SetVehicleDataSubscriptions stores application vehicle data subscriptions. Empty params remove the entry.
func (db *Database) SetVehicleDataSubscriptions(appID string, params []string) (err error) {
	db.Lock()
	defer db.Unlock()

	if len(params) == 0 {
		if _, err = db.sql.Exec("DELETE FROM vehicle_data WHERE appID = ?", appID); err != nil {
			return aoserrors.Wrap(err)
		}

		return nil
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	if _, err = db.sql.Exec("REPLACE INTO vehicle_data (appID, params) VALUES (?, ?)",
		appID, string(paramsJSON)); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

// GetVehicleDataSubscriptions returns stored application vehicle data subscriptions.
// Nil is returned if the application has no stored subscriptions.
func (db *Database) GetVehicleDataSubscriptions(appID string) (params []string, err error) {
	db.Lock()
	defer db.Unlock()

	var paramsJSON string

	if err = db.sql.QueryRow("SELECT params FROM vehicle_data WHERE appID = ?", appID).Scan(
		&paramsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, aoserrors.Wrap(err)
	}

	if err = json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return params, nil
}

// GetVehicleDataApps returns IDs of applications with stored subscriptions.
func (db *Database) GetVehicleDataApps() (appIDs []string, err error) {
	db.Lock()
	defer db.Unlock()

	rows, err := db.sql.Query("SELECT appID FROM vehicle_data ORDER BY appID")
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var appID string

		if err = rows.Scan(&appID); err != nil {
			return nil, aoserrors.Wrap(err)
		}

		appIDs = append(appIDs, appID)
	}

	return appIDs, aoserrors.Wrap(rows.Err())
}

// Close closes database.
func (db *Database) Close() {
	if err := db.sql.Close(); err != nil {
		log.Errorf("Can't close database: %s", err)
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (db *Database) isTableExist(name string) (result bool, err error) {
	rows, err := db.sql.Query("SELECT * FROM sqlite_master WHERE name = ? and type='table'", name)
	if err != nil {
		return false, aoserrors.Wrap(err)
	}
	defer rows.Close()

	result = rows.Next()

	return result, aoserrors.Wrap(rows.Err())
}

func (db *Database) createConfigTable() (err error) {
	log.Info("Create config table")

	exist, err := db.isTableExist("config")
	if err != nil {
		return err
	}

	if exist {
		return nil
	}

	if _, err = db.sql.Exec(`CREATE TABLE config (version INTEGER)`); err != nil {
		return aoserrors.Wrap(err)
	}

	if _, err = db.sql.Exec(`INSERT INTO config (version) values(?)`, CurrentVersion); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

func (db *Database) getVersion() (version int, err error) {
	if err = db.sql.QueryRow("SELECT version FROM config").Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, aoserrors.Wrap(ErrNotExist)
		}

		return 0, aoserrors.Wrap(err)
	}

	return version, nil
}

func (db *Database) createVehicleDataTable() (err error) {
	log.Info("Create vehicle data table")

	if _, err = db.sql.Exec(`CREATE TABLE IF NOT EXISTS vehicle_data (
		appID TEXT NOT NULL PRIMARY KEY,
		params TEXT)`); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}
