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
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/subscriptions"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type unsubscribeOperation struct {
	handler       *Handler
	params        []string
	pending       []string
	kept          []string
	notSubscribed []string
	hmiResults    ResponseParams
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (handler *Handler) newUnsubscribe(command *commands.Command) (commands.Operation, error) {
	params, err := decodeParams(command)
	if err != nil {
		return nil, err
	}

	return &unsubscribeOperation{handler: handler, params: params}, nil
}

func (operation *unsubscribeOperation) Validate(command *commands.Command) (result *commands.Result) {
	if len(operation.params) == 0 {
		return &commands.Result{ResultCode: mobileapi.ResultInvalidData, Info: noDataInfo}
	}

	if !command.IsInterfaceAvailable(hmiapi.InterfaceVehicleInfo) {
		return &commands.Result{ResultCode: mobileapi.ResultUnsupportedResource, Info: notAvailableInfo}
	}

	for _, param := range operation.params {
		last, err := operation.handler.registry.Unsubscribe(command.ConnectionKey(), param)

		switch {
		case errors.Is(err, subscriptions.ErrNotSubscribed):
			operation.notSubscribed = append(operation.notSubscribed, param)

		case last:
			operation.pending = append(operation.pending, param)

		default:
			operation.kept = append(operation.kept, param)
		}
	}

	if len(operation.pending) != 0 {
		return nil
	}

	prepared := operation.prepare(command)

	return &prepared
}

func (operation *unsubscribeOperation) Run(command *commands.Command) {
	request := make(Params)

	for _, param := range operation.pending {
		request[param] = true
	}

	if _, err := command.SendHMIRequest(hmiapi.VehicleInfoUnsubscribeVehicleData, request, true); err != nil {
		log.Errorf("Can't send unsubscribe vehicle data request: %s", err)
	}
}

func (operation *unsubscribeOperation) OnEvent(command *commands.Command, message *hmiapi.Message) {
	if message.FunctionID != hmiapi.VehicleInfoUnsubscribeVehicleData {
		return
	}

	if err := message.DecodeParams(&operation.hmiResults); err != nil {
		log.Errorf("Invalid unsubscribe vehicle data response: %s", err)
	}
}

func (operation *unsubscribeOperation) PrepareResponse(command *commands.Command) (result commands.Result) {
	return operation.prepare(command)
}

func (operation *unsubscribeOperation) Finalize(command *commands.Command, reason commands.CompletionReason) {
	if reason != commands.CompletedByTermination && len(operation.pending)+len(operation.kept) != 0 {
		operation.handler.store(command.Application().AppID, command.ConnectionKey())
	}
}

func (operation *unsubscribeOperation) prepare(command *commands.Command) (result commands.Result) {
	params := make(ResponseParams)

	for _, param := range operation.notSubscribed {
		params[param] = newResult(dataTypes[param], mobileapi.VehicleDataNotSubscribed)
	}

	for _, param := range operation.kept {
		params[param] = newResult(dataTypes[param], mobileapi.VehicleDataSuccess)
	}

	vehicleInfo := command.ResponseInfo(hmiapi.InterfaceVehicleInfo)

	var failed []string

	for _, param := range operation.pending {
		resultCode := mobileapi.VehicleDataSuccess

		if hmiResult, ok := operation.hmiResults[param]; ok {
			resultCode = hmiResult.ResultCode
		}

		if !vehicleInfo.IsOK && resultCode == mobileapi.VehicleDataSuccess {
			resultCode = mobileapi.VehicleDataNotAvailable
		}

		params[param] = newResult(dataTypes[param], resultCode)

		if resultCode != mobileapi.VehicleDataSuccess {
			failed = append(failed, param)
		}
	}

	// HMI keeps failed subscriptions, so does the registry
	for _, param := range failed {
		operation.handler.registry.Restore(command.ConnectionKey(), param)
	}

	result.Params = params

	switch {
	case len(operation.pending) != 0 && !vehicleInfo.IsOK:
		result.ResultCode = mobileapi.HMIToMobileResult(vehicleInfo.ResultCode)

	case len(operation.notSubscribed) == len(operation.params):
		result.ResultCode = mobileapi.ResultIgnored
		result.Info = noneSubscribedInfo

	case len(failed) == len(operation.pending)+len(operation.kept):
		result.ResultCode = mobileapi.ResultVehicleDataNotAvailable

	case len(operation.notSubscribed) != 0:
		result.Success = true
		result.ResultCode = mobileapi.ResultWarnings
		result.Info = notSubscribedInfo

	case len(failed) != 0:
		result.Success = true
		result.ResultCode = mobileapi.ResultWarnings

	case len(operation.pending) != 0:
		result.Success = true
		result.ResultCode = mobileapi.HMIToMobileResult(vehicleInfo.ResultCode)

	default:
		result.Success = true
		result.ResultCode = mobileapi.ResultSuccess
	}

	result.Info = commands.MergeInfos(result.Info, vehicleInfo.Info)

	return result
}
