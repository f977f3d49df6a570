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

package vehicledata

import (
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/subscriptions"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type subscribeOperation struct {
	handler    *Handler
	params     []string
	pending    []string
	sameApp    []string
	otherApp   []string
	hmiResults ResponseParams
	resolved   bool
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (handler *Handler) newSubscribe(command *commands.Command) (commands.Operation, error) {
	params, err := decodeParams(command)
	if err != nil {
		return nil, err
	}

	return &subscribeOperation{handler: handler, params: params}, nil
}

func (operation *subscribeOperation) Validate(command *commands.Command) (result *commands.Result) {
	if len(operation.params) == 0 {
		return &commands.Result{ResultCode: mobileapi.ResultInvalidData, Info: noDataInfo}
	}

	if !command.IsInterfaceAvailable(hmiapi.InterfaceVehicleInfo) {
		return &commands.Result{ResultCode: mobileapi.ResultUnsupportedResource, Info: notAvailableInfo}
	}

	for _, param := range operation.params {
		switch operation.handler.registry.Subscribe(command.ConnectionKey(), param) {
		case subscriptions.NewlySubscribed:
			operation.pending = append(operation.pending, param)

		case subscriptions.AlreadySubscribedBySameApp:
			operation.sameApp = append(operation.sameApp, param)

		case subscriptions.AlreadySubscribedByOtherApp:
			operation.otherApp = append(operation.otherApp, param)
		}
	}

	if len(operation.pending) != 0 {
		return nil
	}

	prepared := operation.prepare(command)

	return &prepared
}

func (operation *subscribeOperation) Run(command *commands.Command) {
	request := make(Params)

	for _, param := range operation.pending {
		request[param] = true
	}

	if _, err := command.SendHMIRequest(hmiapi.VehicleInfoSubscribeVehicleData, request, true); err != nil {
		log.Errorf("Can't send subscribe vehicle data request: %s", err)
	}
}

func (operation *subscribeOperation) OnEvent(command *commands.Command, message *hmiapi.Message) {
	if message.FunctionID != hmiapi.VehicleInfoSubscribeVehicleData {
		return
	}

	if err := message.DecodeParams(&operation.hmiResults); err != nil {
		log.Errorf("Invalid subscribe vehicle data response: %s", err)
	}
}

func (operation *subscribeOperation) PrepareResponse(command *commands.Command) (result commands.Result) {
	return operation.prepare(command)
}

func (operation *subscribeOperation) Finalize(command *commands.Command, reason commands.CompletionReason) {
	if !operation.resolved {
		operation.handler.rollback(command, operation.pending)
	}

	if reason != commands.CompletedByTermination && len(operation.pending)+len(operation.otherApp) != 0 {
		operation.handler.store(command.Application().AppID, command.ConnectionKey())
	}
}

func (operation *subscribeOperation) prepare(command *commands.Command) (result commands.Result) {
	operation.resolved = true

	params := make(ResponseParams)

	for _, param := range operation.sameApp {
		params[param] = newResult(dataTypes[param], mobileapi.VehicleDataAlreadySubscribed)
	}

	for _, param := range operation.otherApp {
		params[param] = newResult(dataTypes[param], mobileapi.VehicleDataSuccess)
	}

	vehicleInfo := command.ResponseInfo(hmiapi.InterfaceVehicleInfo)

	var subscribed, failed []string

	for _, param := range operation.pending {
		resultCode := mobileapi.VehicleDataSuccess

		if hmiResult, ok := operation.hmiResults[param]; ok {
			resultCode = hmiResult.ResultCode
		}

		if !vehicleInfo.IsOK && resultCode == mobileapi.VehicleDataSuccess {
			resultCode = mobileapi.VehicleDataNotAvailable
		}

		params[param] = newResult(dataTypes[param], resultCode)

		if resultCode == mobileapi.VehicleDataSuccess {
			subscribed = append(subscribed, param)
		} else {
			failed = append(failed, param)
		}
	}

	for _, param := range subscribed {
		operation.handler.registry.Confirm(param)
	}

	operation.handler.rollback(command, failed)

	result.Params = params

	switch {
	case len(operation.pending) != 0 && !vehicleInfo.IsOK:
		result.ResultCode = mobileapi.HMIToMobileResult(vehicleInfo.ResultCode)

	case len(operation.sameApp) == len(operation.params):
		result.ResultCode = mobileapi.ResultIgnored
		result.Info = alreadySubscribed

	case len(subscribed)+len(operation.otherApp) == 0:
		result.ResultCode = mobileapi.ResultVehicleDataNotAvailable

	case len(failed)+len(operation.sameApp) != 0:
		result.Success = true
		result.ResultCode = mobileapi.ResultWarnings

	case len(operation.pending) != 0:
		result.Success = true
		result.ResultCode = mobileapi.HMIToMobileResult(vehicleInfo.ResultCode)

	default:
		result.Success = true
		result.ResultCode = mobileapi.ResultSuccess
	}

	result.Info = commands.MergeInfos(result.Info, vehicleInfo.Info, otherAppInfo(operation.otherApp))

	return result
}
