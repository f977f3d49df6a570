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

package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/juju/clock"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/audiocapture"
	"github.com/aoscloud/aos_hmibroker/canadapter"
	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/commands/audiopassthru"
	"github.com/aoscloud/aos_hmibroker/commands/vehicledata"
	"github.com/aoscloud/aos_hmibroker/config"
	"github.com/aoscloud/aos_hmibroker/database"
	"github.com/aoscloud/aos_hmibroker/hmiadapter"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/httpsserver"
	"github.com/aoscloud/aos_hmibroker/metrics"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/mobileserver"
	"github.com/aoscloud/aos_hmibroker/mqttadapter"
	"github.com/aoscloud/aos_hmibroker/subscriptions"
	"github.com/aoscloud/aos_hmibroker/transport"
	"github.com/aoscloud/aos_hmibroker/validation"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// GitSummary provided by govvv at compile-time.
var GitSummary = "Unknown" //nolint:gochecknoglobals

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type broker struct {
	db            *database.Database
	metrics       *metrics.Collector
	transport     *transport.Handler
	manager       *commands.Manager
	mobileServer  *mobileserver.Server
	metricsServer *httpsserver.HTTPSServer
	closers       []func()
}

/***********************************************************************************************************************
 * Init
 **********************************************************************************************************************/

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: false,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		FullTimestamp:    true,
	})
	log.SetOutput(os.Stdout)
}

/***********************************************************************************************************************
 * Main
 **********************************************************************************************************************/

func main() {
	configFile := flag.String("c", "aos_hmibroker.cfg", "path to config file")
	strLogLevel := flag.String("v", "info", `log level: "debug", "info", "warn", "error", "fatal", "panic"`)

	flag.Parse()

	logLevel, err := log.ParseLevel(*strLogLevel)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}

	log.SetLevel(logLevel)

	log.WithFields(log.Fields{"configFile": *configFile, "version": GitSummary}).Info("Start HMI broker")

	cfg, err := config.New(*configFile)
	if err != nil {
		log.Fatalf("Can't open config file: %s", err)
	}

	hmiBroker, err := newBroker(cfg)
	if err != nil {
		log.Fatalf("Can't create HMI broker: %s", err)
	}
	defer hmiBroker.close()

	if _, err = daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Errorf("Can't notify systemd: %s", err)
	}

	terminateChannel := make(chan os.Signal, 1)
	signal.Notify(terminateChannel, os.Interrupt, syscall.SIGTERM)

	<-terminateChannel

	if _, err = daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Errorf("Can't notify systemd: %s", err)
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func newBroker(cfg *config.Config) (hmiBroker *broker, err error) {
	hmiBroker = &broker{metrics: metrics.New()}

	defer func() {
		if err != nil {
			hmiBroker.close()
		}
	}()

	if hmiBroker.db, err = openDatabase(cfg.DatabaseFile()); err != nil {
		return hmiBroker, err
	}

	hmiBroker.transport = transport.New(hmiBroker.metrics)
	hmiBroker.mobileServer = mobileserver.New(cfg.MobileServer.URL, cfg.MobileServer.CertFile,
		cfg.MobileServer.KeyFile)

	hmiBroker.manager = commands.New(commands.Config{
		DefaultTimeout:  cfg.DefaultTimeout.Duration,
		ReadyInterfaces: toInterfaces(cfg.ReadyInterfaces),
	}, clock.WallClock, hmiBroker.transport, hmiBroker.mobileServer, apps.New(), hmiBroker.metrics)

	hmiBroker.transport.SetMessageObserver(hmiBroker.manager)

	capturer := audiocapture.New(clock.WallClock, hmiBroker.mobileServer, cfg.AudioPassThru.File,
		cfg.AudioPassThru.ChunkInterval.Duration)

	hmiBroker.manager.RegisterOperation(mobileapi.PerformAudioPassThru,
		audiopassthru.NewFactory(capturer, validation.NewImageVerifier(cfg.ImageDir)))

	vehicledata.New(hmiBroker.manager, subscriptions.New(), hmiBroker.db)

	if err = hmiBroker.createAdapters(cfg); err != nil {
		return hmiBroker, err
	}

	if err = hmiBroker.mobileServer.Start(hmiBroker.manager); err != nil {
		return hmiBroker, err
	}

	if cfg.MetricsURL != "" {
		if hmiBroker.metricsServer, err = httpsserver.New(cfg.MetricsURL, cfg.MobileServer.CertFile,
			cfg.MobileServer.KeyFile, hmiBroker.metrics.Handler()); err != nil {
			return hmiBroker, err
		}
	}

	return hmiBroker, nil
}

func (hmiBroker *broker) createAdapters(cfg *config.Config) (err error) {
	hmiInterfaces := toInterfaces(cfg.HMIServer.Interfaces)
	if len(hmiInterfaces) == 0 {
		hmiInterfaces = []hmiapi.Interface{hmiapi.InterfaceAny}
	}

	hmiAdapter, err := hmiadapter.New(cfg.HMIServer.URL, cfg.HMIServer.CertFile, cfg.HMIServer.KeyFile,
		hmiInterfaces, hmiBroker.transport)
	if err != nil {
		return err
	}

	hmiBroker.addAdapter(hmiAdapter, hmiAdapter.Close)

	if !cfg.MQTT.Disabled {
		mqttAdapter, err := mqttadapter.New(mqttadapter.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Interfaces:  toInterfaces(cfg.MQTT.Interfaces),
		}, hmiBroker.transport)
		if err != nil {
			return err
		}

		hmiBroker.addAdapter(mqttAdapter, mqttAdapter.Close)
	}

	if !cfg.CAN.Disabled {
		canAdapter, err := canadapter.New(clock.WallClock,
			canadapter.NewSerialConnection(cfg.CAN.Port, cfg.CAN.Baud, cfg.CAN.ReadTimeout.Duration),
			toInterfaces(cfg.CAN.Interfaces), hmiBroker.transport)
		if err != nil {
			return err
		}

		hmiBroker.addAdapter(canAdapter, canAdapter.Close)
	}

	return nil
}

func (hmiBroker *broker) addAdapter(adapter transport.Adapter, closeAdapter func()) {
	hmiBroker.transport.AddAdapter(adapter)

	hmiBroker.closers = append(hmiBroker.closers, func() {
		hmiBroker.transport.RemoveAdapter(adapter)
		closeAdapter()
	})
}

func (hmiBroker *broker) close() {
	if hmiBroker.metricsServer != nil {
		hmiBroker.metricsServer.Close()
	}

	if hmiBroker.mobileServer != nil {
		hmiBroker.mobileServer.Close()
	}

	for _, closeAdapter := range hmiBroker.closers {
		closeAdapter()
	}

	if hmiBroker.manager != nil {
		hmiBroker.manager.Close()
	}

	if hmiBroker.transport != nil {
		hmiBroker.transport.Close()
	}

	if hmiBroker.db != nil {
		hmiBroker.db.Close()
	}
}

func openDatabase(fileName string) (db *database.Database, err error) {
	db, err = database.New(fileName)
	if err == nil {
		return db, nil
	}

	if !errors.Is(err, database.ErrVersionMismatch) {
		return nil, err
	}

	log.Warning("Unsupported database version, resumption data is dropped")

	if err = os.RemoveAll(fileName); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return database.New(fileName)
}

func toInterfaces(names []string) (interfaces []hmiapi.Interface) {
	for _, name := range names {
		interfaces = append(interfaces, hmiapi.Interface(name))
	}

	return interfaces
}
