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

// Package vehicledata implements SubscribeVehicleData and UnsubscribeVehicleData operations on top of the shared
// subscription registry. Application subscriptions are stored and restored on next registration.
package vehicledata

import (
	"sort"
	"strings"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/subscriptions"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	noDataInfo          = "No data in the request"
	alreadySubscribed   = "Already subscribed on provided VehicleData"
	otherAppInfoPrefix  = "Already subscribed by another application: "
	notSubscribedInfo   = "Some provided VehicleData was not subscribed"
	noneSubscribedInfo  = "Was not subscribed on any VehicleData"
	notAvailableInfo    = "VehicleInfo is not supported by system"
	subscriptionLostLog = "Subscription revoked after HMI rejection"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// Known vehicle data parameters and their data types.
var dataTypes = map[string]string{ //nolint:gochecknoglobals // const table
	"gps":                       "VEHICLEDATA_GPS",
	"speed":                     "VEHICLEDATA_SPEED",
	"rpm":                       "VEHICLEDATA_RPM",
	"fuelLevel":                 "VEHICLEDATA_FUELLEVEL",
	"fuelLevel_State":           "VEHICLEDATA_FUELLEVEL_STATE",
	"instantFuelConsumption":    "VEHICLEDATA_FUELCONSUMPTION",
	"fuelRange":                 "VEHICLEDATA_FUELRANGE",
	"externalTemperature":       "VEHICLEDATA_EXTERNTEMP",
	"turnSignal":                "VEHICLEDATA_TURNSIGNAL",
	"prndl":                     "VEHICLEDATA_PRNDL",
	"tirePressure":              "VEHICLEDATA_TIREPRESSURE",
	"odometer":                  "VEHICLEDATA_ODOMETER",
	"beltStatus":                "VEHICLEDATA_BELTSTATUS",
	"bodyInformation":           "VEHICLEDATA_BODYINFO",
	"deviceStatus":              "VEHICLEDATA_DEVICESTATUS",
	"driverBraking":             "VEHICLEDATA_BRAKING",
	"wiperStatus":               "VEHICLEDATA_WIPERSTATUS",
	"headLampStatus":            "VEHICLEDATA_HEADLAMPSTATUS",
	"engineTorque":              "VEHICLEDATA_ENGINETORQUE",
	"engineOilLife":             "VEHICLEDATA_ENGINEOILLIFE",
	"accPedalPosition":          "VEHICLEDATA_ACCPEDAL",
	"steeringWheelAngle":        "VEHICLEDATA_STEERINGWHEEL",
	"eCallInfo":                 "VEHICLEDATA_ECALLINFO",
	"airbagStatus":              "VEHICLEDATA_AIRBAGSTATUS",
	"emergencyEvent":            "VEHICLEDATA_EMERGENCYEVENT",
	"clusterModeStatus":         "VEHICLEDATA_CLUSTERMODESTATUS",
	"myKey":                     "VEHICLEDATA_MYKEY",
	"electronicParkBrakeStatus": "VEHICLEDATA_ELECTRONICPARKBRAKESTATUS",
}

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Storage stores application subscriptions by application ID.
type Storage interface {
	SetVehicleDataSubscriptions(appID string, params []string) (err error)
	GetVehicleDataSubscriptions(appID string) (params []string, err error)
}

// Handler vehicle data operations handler.
type Handler struct {
	manager  *commands.Manager
	registry *subscriptions.Registry
	storage  Storage
}

// Params vehicle data request params: parameter name to requested flag.
type Params map[string]bool

// ResponseParams per parameter results.
type ResponseParams map[string]mobileapi.VehicleDataResult

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates vehicle data handler and registers its operations. Storage is optional.
func New(manager *commands.Manager, registry *subscriptions.Registry, storage Storage) (handler *Handler) {
	log.Debug("Create vehicle data handler")

	handler = &Handler{manager: manager, registry: registry, storage: storage}

	manager.RegisterOperation(mobileapi.SubscribeVehicleData, handler.newSubscribe)
	manager.RegisterOperation(mobileapi.UnsubscribeVehicleData, handler.newUnsubscribe)
	manager.AddAppListener(handler)

	return handler
}

// DataType returns data type of parameter.
func DataType(param string) (dataType string, ok bool) {
	dataType, ok = dataTypes[param]

	return dataType, ok
}

// OnAppRegistered restores stored application subscriptions.
func (handler *Handler) OnAppRegistered(app apps.Application) {
	if handler.storage == nil {
		return
	}

	params, err := handler.storage.GetVehicleDataSubscriptions(app.AppID)
	if err != nil {
		log.WithField("appID", app.AppID).Errorf("Can't get stored subscriptions: %s", err)

		return
	}

	if len(params) == 0 {
		return
	}

	log.WithFields(log.Fields{"appID": app.AppID, "params": params}).Info("Restore vehicle data subscriptions")

	request := make(Params)

	for _, param := range params {
		request[param] = true
	}

	if err = handler.manager.ProcessInternalRequest(
		mobileapi.SubscribeVehicleData, app.ConnectionKey, request); err != nil {
		log.WithField("appID", app.AppID).Errorf("Can't restore subscriptions: %s", err)
	}
}

// OnAppUnregistered removes application subscriptions and unsubscribes HMI from parameters nobody needs anymore.
func (handler *Handler) OnAppUnregistered(app apps.Application) {
	orphaned := handler.registry.RemoveApp(app.ConnectionKey)
	if len(orphaned) == 0 {
		return
	}

	request := make(Params)

	for _, param := range orphaned {
		request[param] = true
	}

	if err := handler.manager.SendHMIRequest(hmiapi.VehicleInfoUnsubscribeVehicleData, request,
		func(message *hmiapi.Message) {
			entry := log.WithFields(log.Fields{"params": orphaned, "result": message.Result})

			if !message.Result.IsSuccess() {
				entry.Warn("Can't unsubscribe orphaned vehicle data")

				return
			}

			entry.Debug("Orphaned vehicle data unsubscribed")
		}); err != nil {
		log.Errorf("Can't unsubscribe orphaned vehicle data: %s", err)
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func decodeParams(command *commands.Command) (params []string, err error) {
	var request Params

	if err = command.Request().DecodeParams(&request); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	for param, requested := range request {
		if !requested {
			continue
		}

		if _, ok := dataTypes[param]; !ok {
			log.WithField("param", param).Warn("Unknown vehicle data ignored")

			continue
		}

		params = append(params, param)
	}

	sort.Strings(params)

	return params, nil
}

func (handler *Handler) store(appID string, connectionKey uint32) {
	if handler.storage == nil {
		return
	}

	if err := handler.storage.SetVehicleDataSubscriptions(
		appID, handler.registry.AppSubscriptions(connectionKey)); err != nil {
		log.WithField("appID", appID).Errorf("Can't store subscriptions: %s", err)
	}
}

func (handler *Handler) rollback(command *commands.Command, params []string) {
	if len(params) == 0 {
		return
	}

	for param, revokedApps := range handler.registry.Rollback(command.ConnectionKey(), params) {
		for _, connectionKey := range revokedApps {
			log.WithFields(log.Fields{"param": param, "connectionKey": connectionKey}).Warn(subscriptionLostLog)

			if app, ok := handler.manager.Application(connectionKey); ok {
				handler.store(app.AppID, connectionKey)
			}
		}
	}
}

func newResult(dataType string, resultCode mobileapi.VehicleDataResultCode) mobileapi.VehicleDataResult {
	return mobileapi.VehicleDataResult{DataType: dataType, ResultCode: resultCode}
}

func otherAppInfo(params []string) string {
	if len(params) == 0 {
		return ""
	}

	return otherAppInfoPrefix + strings.Join(params, ", ")
}
