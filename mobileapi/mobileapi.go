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

// Package mobileapi provides mobile facing request, response and result types.
package mobileapi

import (
	"encoding/json"

	"github.com/aoscloud/aos_common/aoserrors"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Mobile functions.
const (
	PerformAudioPassThru   FunctionID = "PerformAudioPassThru"
	SubscribeVehicleData   FunctionID = "SubscribeVehicleData"
	UnsubscribeVehicleData FunctionID = "UnsubscribeVehicleData"
	OnAudioPassThru        FunctionID = "OnAudioPassThru"
)

// HMI levels.
const (
	HMILevelNone       HMILevel = "NONE"
	HMILevelBackground HMILevel = "BACKGROUND"
	HMILevelLimited    HMILevel = "LIMITED"
	HMILevelFull       HMILevel = "FULL"
)

// Mobile result codes.
const (
	ResultInvalidEnum              Result = "INVALID_ENUM"
	ResultSuccess                  Result = "SUCCESS"
	ResultUnsupportedRequest       Result = "UNSUPPORTED_REQUEST"
	ResultUnsupportedResource      Result = "UNSUPPORTED_RESOURCE"
	ResultDisallowed               Result = "DISALLOWED"
	ResultRejected                 Result = "REJECTED"
	ResultAborted                  Result = "ABORTED"
	ResultIgnored                  Result = "IGNORED"
	ResultRetry                    Result = "RETRY"
	ResultInUse                    Result = "IN_USE"
	ResultVehicleDataNotAvailable  Result = "VEHICLE_DATA_NOT_AVAILABLE"
	ResultTimedOut                 Result = "TIMED_OUT"
	ResultInvalidData              Result = "INVALID_DATA"
	ResultCharLimitExceeded        Result = "CHAR_LIMIT_EXCEEDED"
	ResultInvalidID                Result = "INVALID_ID"
	ResultDuplicateName            Result = "DUPLICATE_NAME"
	ResultApplicationNotRegistered Result = "APPLICATION_NOT_REGISTERED"
	ResultWrongLanguage            Result = "WRONG_LANGUAGE"
	ResultOutOfMemory              Result = "OUT_OF_MEMORY"
	ResultTooManyPendingRequests   Result = "TOO_MANY_PENDING_REQUESTS"
	ResultWarnings                 Result = "WARNINGS"
	ResultGenericError             Result = "GENERIC_ERROR"
	ResultUserDisallowed           Result = "USER_DISALLOWED"
	ResultTruncatedData            Result = "TRUNCATED_DATA"
	ResultSaved                    Result = "SAVED"
	ResultDataNotAvailable         Result = "DATA_NOT_AVAILABLE"
	ResultReadOnly                 Result = "READ_ONLY"
)

// Vehicle data parameter result codes.
const (
	VehicleDataSuccess           VehicleDataResultCode = "SUCCESS"
	VehicleDataTruncatedData     VehicleDataResultCode = "TRUNCATED_DATA"
	VehicleDataDisallowed        VehicleDataResultCode = "DISALLOWED"
	VehicleDataUserDisallowed    VehicleDataResultCode = "USER_DISALLOWED"
	VehicleDataInvalidID         VehicleDataResultCode = "INVALID_ID"
	VehicleDataNotAvailable      VehicleDataResultCode = "VEHICLE_DATA_NOT_AVAILABLE"
	VehicleDataAlreadySubscribed VehicleDataResultCode = "DATA_ALREADY_SUBSCRIBED"
	VehicleDataNotSubscribed     VehicleDataResultCode = "DATA_NOT_SUBSCRIBED"
	VehicleDataIgnored           VehicleDataResultCode = "IGNORED"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var hmiToMobileResults = map[hmiapi.Result]Result{ //nolint:gochecknoglobals // const table
	hmiapi.ResultSuccess:                  ResultSuccess,
	hmiapi.ResultUnsupportedRequest:       ResultUnsupportedRequest,
	hmiapi.ResultUnsupportedResource:      ResultUnsupportedResource,
	hmiapi.ResultDisallowed:               ResultDisallowed,
	hmiapi.ResultRejected:                 ResultRejected,
	hmiapi.ResultAborted:                  ResultAborted,
	hmiapi.ResultIgnored:                  ResultIgnored,
	hmiapi.ResultRetry:                    ResultRetry,
	hmiapi.ResultInUse:                    ResultInUse,
	hmiapi.ResultDataNotAvailable:         ResultVehicleDataNotAvailable,
	hmiapi.ResultTimedOut:                 ResultTimedOut,
	hmiapi.ResultInvalidData:              ResultInvalidData,
	hmiapi.ResultCharLimitExceeded:        ResultCharLimitExceeded,
	hmiapi.ResultInvalidID:                ResultInvalidID,
	hmiapi.ResultDuplicateName:            ResultDuplicateName,
	hmiapi.ResultApplicationNotRegistered: ResultApplicationNotRegistered,
	hmiapi.ResultWrongLanguage:            ResultWrongLanguage,
	hmiapi.ResultOutOfMemory:              ResultOutOfMemory,
	hmiapi.ResultTooManyPendingRequests:   ResultTooManyPendingRequests,
	hmiapi.ResultWarnings:                 ResultWarnings,
	hmiapi.ResultGenericError:             ResultGenericError,
	hmiapi.ResultUserDisallowed:           ResultUserDisallowed,
	hmiapi.ResultTruncatedData:            ResultTruncatedData,
	hmiapi.ResultSaved:                    ResultSaved,
	hmiapi.ResultReadOnly:                 ResultReadOnly,
}

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// FunctionID mobile function identifier.
type FunctionID string

// HMILevel application HMI level.
type HMILevel string

// Result mobile result code.
type Result string

// VehicleDataResultCode result code of single vehicle data parameter.
type VehicleDataResultCode string

// VehicleDataResult result of single vehicle data parameter.
type VehicleDataResult struct {
	DataType   string                `json:"dataType"`
	ResultCode VehicleDataResultCode `json:"resultCode"`
}

// Request mobile request.
type Request struct {
	FunctionID    FunctionID      `json:"function"`
	ConnectionKey uint32          `json:"connectionKey"`
	CorrelationID int32           `json:"correlationId"`
	Params        json.RawMessage `json:"params,omitempty"`
	// Internal requests are issued by the broker itself, their responses are not sent to mobile.
	Internal bool `json:"-"`
}

// Response mobile response.
type Response struct {
	FunctionID    FunctionID      `json:"function"`
	ConnectionKey uint32          `json:"connectionKey"`
	CorrelationID int32           `json:"correlationId"`
	Success       bool            `json:"success"`
	ResultCode    Result          `json:"resultCode"`
	Info          string          `json:"info,omitempty"`
	Params        json.RawMessage `json:"params,omitempty"`
}

// Notification mobile notification.
type Notification struct {
	FunctionID    FunctionID      `json:"function"`
	ConnectionKey uint32          `json:"connectionKey"`
	Params        json.RawMessage `json:"params,omitempty"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// HMIToMobileResult converts HMI result code to mobile result code.
func HMIToMobileResult(result hmiapi.Result) Result {
	if mobileResult, ok := hmiToMobileResults[result]; ok {
		return mobileResult
	}

	return ResultInvalidEnum
}

// DecodeParams decodes request params.
func (request Request) DecodeParams(params interface{}) (err error) {
	if len(request.Params) == 0 {
		return nil
	}

	if err = json.Unmarshal(request.Params, params); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}
