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

package hmiapi

import "strconv"

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// HMI result codes.
const (
	ResultInvalidEnum              Result = -1
	ResultSuccess                  Result = 0
	ResultUnsupportedRequest       Result = 1
	ResultUnsupportedResource      Result = 2
	ResultDisallowed               Result = 3
	ResultRejected                 Result = 4
	ResultAborted                  Result = 5
	ResultIgnored                  Result = 6
	ResultRetry                    Result = 7
	ResultInUse                    Result = 8
	ResultDataNotAvailable         Result = 9
	ResultTimedOut                 Result = 10
	ResultInvalidData              Result = 11
	ResultCharLimitExceeded        Result = 12
	ResultInvalidID                Result = 13
	ResultDuplicateName            Result = 14
	ResultApplicationNotRegistered Result = 15
	ResultWrongLanguage            Result = 16
	ResultOutOfMemory              Result = 17
	ResultTooManyPendingRequests   Result = 18
	ResultNoAppsRegistered         Result = 19
	ResultNoDevicesConnected       Result = 20
	ResultWarnings                 Result = 21
	ResultGenericError             Result = 22
	ResultUserDisallowed           Result = 23
	ResultTruncatedData            Result = 24
	ResultSaved                    Result = 25
	ResultReadOnly                 Result = 26
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var resultNames = map[Result]string{ //nolint:gochecknoglobals // const table
	ResultInvalidEnum:              "INVALID_ENUM",
	ResultSuccess:                  "SUCCESS",
	ResultUnsupportedRequest:       "UNSUPPORTED_REQUEST",
	ResultUnsupportedResource:      "UNSUPPORTED_RESOURCE",
	ResultDisallowed:               "DISALLOWED",
	ResultRejected:                 "REJECTED",
	ResultAborted:                  "ABORTED",
	ResultIgnored:                  "IGNORED",
	ResultRetry:                    "RETRY",
	ResultInUse:                    "IN_USE",
	ResultDataNotAvailable:         "DATA_NOT_AVAILABLE",
	ResultTimedOut:                 "TIMED_OUT",
	ResultInvalidData:              "INVALID_DATA",
	ResultCharLimitExceeded:        "CHAR_LIMIT_EXCEEDED",
	ResultInvalidID:                "INVALID_ID",
	ResultDuplicateName:            "DUPLICATE_NAME",
	ResultApplicationNotRegistered: "APPLICATION_NOT_REGISTERED",
	ResultWrongLanguage:            "WRONG_LANGUAGE",
	ResultOutOfMemory:              "OUT_OF_MEMORY",
	ResultTooManyPendingRequests:   "TOO_MANY_PENDING_REQUESTS",
	ResultNoAppsRegistered:         "NO_APPS_REGISTERED",
	ResultNoDevicesConnected:       "NO_DEVICES_CONNECTED",
	ResultWarnings:                 "WARNINGS",
	ResultGenericError:             "GENERIC_ERROR",
	ResultUserDisallowed:           "USER_DISALLOWED",
	ResultTruncatedData:            "TRUNCATED_DATA",
	ResultSaved:                    "SAVED",
	ResultReadOnly:                 "READ_ONLY",
}

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Result HMI result code.
type Result int

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

func (result Result) String() string {
	if name, ok := resultNames[result]; ok {
		return name
	}

	return "Result(" + strconv.Itoa(int(result)) + ")"
}

// ParseResult returns result code by its name.
func ParseResult(name string) (result Result, ok bool) {
	for result, resultName := range resultNames {
		if resultName == name {
			return result, true
		}
	}

	return ResultInvalidEnum, false
}

// IsSuccess returns true if result means the request was executed.
func (result Result) IsSuccess() bool {
	switch result {
	case ResultSuccess, ResultWarnings, ResultWrongLanguage, ResultRetry, ResultSaved, ResultTruncatedData:
		return true

	default:
		return false
	}
}
