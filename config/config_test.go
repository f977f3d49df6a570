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

package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/config"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var (
	tmpDir string
	cfg    *config.Config
)

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func saveConfigFile(configName string, configContent string) (fileName string, err error) {
	fileName = filepath.Join(tmpDir, configName)

	if err = os.WriteFile(fileName, []byte(configContent), 0o600); err != nil {
		return "", err
	}

	return fileName, nil
}

func setup() (err error) {
	if tmpDir, err = os.MkdirTemp("", "hmibroker_"); err != nil {
		return err
	}

	configContent := `{
	"workingDir": "/var/aos/hmibroker_test",
	"defaultTimeout": "15s",
	"readyInterfaces": ["UI", "VehicleInfo"],
	"mobileServer": {
		"url": ":8090",
		"cert": "crt.pem",
		"key": "key.pem"
	},
	"hmiServer": {
		"url": ":8087",
		"interfaces": ["UI", "TTS", "BasicCommunication"]
	},
	"mqtt": {
		"broker": "tcp://localhost:1883",
		"clientId": "hmibroker",
		"qos": 1,
		"interfaces": ["VehicleInfo"],
		"disabled": false
	},
	"can": {
		"port": "/dev/ttyUSB0",
		"readTimeout": 2,
		"interfaces": ["RC"]
	},
	"audioPassThru": {
		"file": "/tmp/audio.pcm",
		"chunkInterval": "500ms"
	},
	"metricsUrl": ":9090"
}`

	fileName, err := saveConfigFile("aos_hmibroker.cfg", configContent)
	if err != nil {
		return err
	}

	if cfg, err = config.New(fileName); err != nil {
		return err
	}

	return nil
}

/***********************************************************************************************************************
 * Main
 **********************************************************************************************************************/

func TestMain(m *testing.M) {
	if err := setup(); err != nil {
		log.Fatalf("Setup error: %s", err)
	}

	ret := m.Run()

	if err := os.RemoveAll(tmpDir); err != nil {
		log.Fatalf("Cleanup error: %s", err)
	}

	os.Exit(ret)
}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestServers(t *testing.T) {
	if cfg.MobileServer.URL != ":8090" {
		t.Errorf("Wrong mobile server URL: %s", cfg.MobileServer.URL)
	}

	if cfg.MobileServer.CertFile != "crt.pem" || cfg.MobileServer.KeyFile != "key.pem" {
		t.Errorf("Wrong mobile server credentials: %s, %s", cfg.MobileServer.CertFile, cfg.MobileServer.KeyFile)
	}

	if cfg.HMIServer.URL != ":8087" {
		t.Errorf("Wrong HMI server URL: %s", cfg.HMIServer.URL)
	}

	if !reflect.DeepEqual(cfg.HMIServer.Interfaces, []string{"UI", "TTS", "BasicCommunication"}) {
		t.Errorf("Wrong HMI server interfaces: %v", cfg.HMIServer.Interfaces)
	}

	if cfg.MetricsURL != ":9090" {
		t.Errorf("Wrong metrics URL: %s", cfg.MetricsURL)
	}
}

func TestTimeouts(t *testing.T) {
	if cfg.DefaultTimeout.Duration != 15*time.Second {
		t.Errorf("Wrong default timeout: %s", cfg.DefaultTimeout)
	}

	if cfg.CAN.ReadTimeout.Duration != 2*time.Second {
		t.Errorf("Wrong CAN read timeout: %s", cfg.CAN.ReadTimeout)
	}

	if cfg.AudioPassThru.ChunkInterval.Duration != 500*time.Millisecond {
		t.Errorf("Wrong chunk interval: %s", cfg.AudioPassThru.ChunkInterval)
	}
}

func TestAdapters(t *testing.T) {
	if cfg.MQTT.Disabled || cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.QoS != 1 {
		t.Errorf("Wrong MQTT config: %+v", cfg.MQTT)
	}

	if cfg.MQTT.TopicPrefix != "hmibroker" {
		t.Errorf("Wrong MQTT topic prefix: %s", cfg.MQTT.TopicPrefix)
	}

	if cfg.CAN.Disabled || cfg.CAN.Port != "/dev/ttyUSB0" || cfg.CAN.Baud != 115200 {
		t.Errorf("Wrong CAN config: %+v", cfg.CAN)
	}
}

func TestDirs(t *testing.T) {
	if cfg.WorkingDir != "/var/aos/hmibroker_test" {
		t.Errorf("Wrong working dir value: %s", cfg.WorkingDir)
	}

	if cfg.ImageDir != "/var/aos/hmibroker_test/images" {
		t.Errorf("Wrong image dir value: %s", cfg.ImageDir)
	}

	if cfg.DatabaseFile() != "/var/aos/hmibroker_test/hmibroker.db" {
		t.Errorf("Wrong database file: %s", cfg.DatabaseFile())
	}
}

func TestDefaults(t *testing.T) {
	fileName, err := saveConfigFile("aos_default.cfg", "{}")
	if err != nil {
		t.Fatalf("Can't save config: %s", err)
	}

	defaultCfg, err := config.New(fileName)
	if err != nil {
		t.Fatalf("Can't create config: %s", err)
	}

	if defaultCfg.DefaultTimeout.Duration != 10*time.Second {
		t.Errorf("Wrong default timeout: %s", defaultCfg.DefaultTimeout)
	}

	if !defaultCfg.MQTT.Disabled || !defaultCfg.CAN.Disabled {
		t.Error("Adapters should be disabled by default")
	}

	if len(defaultCfg.ReadyInterfaces) != 4 {
		t.Errorf("Wrong ready interfaces: %v", defaultCfg.ReadyInterfaces)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := config.New("some_nonexisting_file"); err == nil {
		t.Errorf("No error was returned for nonexisting config")
	}

	fileName, err := saveConfigFile("aos_wrongconfig.cfg", ` SOME WRONG JSON FORMAT
	}]
}`)
	if err != nil {
		t.Fatalf("Can't save config: %s", err)
	}

	if _, err := config.New(fileName); err == nil {
		t.Errorf("No error was returned for config with wrong format")
	}

	if fileName, err = saveConfigFile("aos_wrongduration.cfg", `{"defaultTimeout": "ten"}`); err != nil {
		t.Fatalf("Can't save config: %s", err)
	}

	if _, err := config.New(fileName); err == nil {
		t.Errorf("No error was returned for wrong duration")
	}
}
