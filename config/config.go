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

// Package config provides set of API to provide HMI broker configuration
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	defaultWorkingDir      = "/var/aos/hmibroker"
	defaultTimeout         = 10 * time.Second
	defaultChunkInterval   = time.Second
	defaultMQTTTopicPrefix = "hmibroker"
	defaultCANBaud         = 115200
	defaultCANReadTimeout  = time.Second
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Duration represents duration in format "10s".
type Duration struct {
	time.Duration
}

// ServerConfig websocket server configuration.
type ServerConfig struct {
	URL        string   `json:"url"`
	CertFile   string   `json:"cert"`
	KeyFile    string   `json:"key"`
	Interfaces []string `json:"interfaces"`
}

// MQTTConfig MQTT HMI adapter configuration.
type MQTTConfig struct {
	Broker      string   `json:"broker"`
	ClientID    string   `json:"clientId"`
	TopicPrefix string   `json:"topicPrefix"`
	QoS         byte     `json:"qos"`
	Interfaces  []string `json:"interfaces"`
	Disabled    bool     `json:"disabled"`
}

// CANConfig vehicle bus adapter configuration.
type CANConfig struct {
	Port        string   `json:"port"`
	Baud        int      `json:"baud"`
	ReadTimeout Duration `json:"readTimeout"`
	Interfaces  []string `json:"interfaces"`
	Disabled    bool     `json:"disabled"`
}

// AudioPassThruConfig audio capture configuration.
type AudioPassThruConfig struct {
	File          string   `json:"file"`
	ChunkInterval Duration `json:"chunkInterval"`
}

// Config instance.
type Config struct {
	WorkingDir      string              `json:"workingDir"`
	ImageDir        string              `json:"imageDir"`
	DefaultTimeout  Duration            `json:"defaultTimeout"`
	ReadyInterfaces []string            `json:"readyInterfaces"`
	MobileServer    ServerConfig        `json:"mobileServer"`
	HMIServer       ServerConfig        `json:"hmiServer"`
	MQTT            MQTTConfig          `json:"mqtt"`
	CAN             CANConfig           `json:"can"`
	AudioPassThru   AudioPassThruConfig `json:"audioPassThru"`
	MetricsURL      string              `json:"metricsUrl"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates new config object.
func New(fileName string) (config *Config, err error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}
	defer file.Close()

	config = &Config{
		WorkingDir:     defaultWorkingDir,
		DefaultTimeout: Duration{defaultTimeout},
		ReadyInterfaces: []string{
			"UI", "TTS", "VR", "VehicleInfo",
		},
		MQTT: MQTTConfig{TopicPrefix: defaultMQTTTopicPrefix, Disabled: true},
		CAN: CANConfig{
			Baud: defaultCANBaud, ReadTimeout: Duration{defaultCANReadTimeout}, Disabled: true,
		},
		AudioPassThru: AudioPassThruConfig{ChunkInterval: Duration{defaultChunkInterval}},
	}

	decoder := json.NewDecoder(file)
	if err = decoder.Decode(config); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if config.ImageDir == "" {
		config.ImageDir = filepath.Join(config.WorkingDir, "images")
	}

	return config, nil
}

// DatabaseFile returns path of the resumption database.
func (config *Config) DatabaseFile() string {
	return filepath.Join(config.WorkingDir, "hmibroker.db")
}

// MarshalJSON marshals JSON Duration type.
func (d Duration) MarshalJSON() (b []byte, err error) {
	if b, err = json.Marshal(d.Duration.String()); err != nil {
		return b, aoserrors.Wrap(err)
	}

	return b, nil
}

// UnmarshalJSON unmarshals JSON Duration type. Numbers are treated as seconds.
func (d *Duration) UnmarshalJSON(b []byte) (err error) {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return aoserrors.Wrap(err)
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))

		return nil

	case string:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return aoserrors.Wrap(err)
		}

		d.Duration = duration

		return nil

	default:
		return aoserrors.Errorf("invalid duration value: %v", value)
	}
}
