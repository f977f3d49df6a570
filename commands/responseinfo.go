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

package commands

import (
	"strings"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const infoSeparator = ", "

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// ResponseInfo outcome of one HMI interface. Flags are derived from result code and interface state.
type ResponseInfo struct {
	ResultCode     hmiapi.Result
	InterfaceState hmiapi.InterfaceState
	Info           string

	IsOK                  bool
	IsUnsupportedResource bool
	IsAborted             bool
	IsInvalidEnum         bool
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// NewResponseInfo creates response info.
func NewResponseInfo(resultCode hmiapi.Result, state hmiapi.InterfaceState, info string) (responseInfo ResponseInfo) {
	return ResponseInfo{
		ResultCode:            resultCode,
		InterfaceState:        state,
		Info:                  info,
		IsOK:                  resultCode.IsSuccess(),
		IsUnsupportedResource: resultCode == hmiapi.ResultUnsupportedResource,
		IsAborted:             resultCode == hmiapi.ResultAborted,
		IsInvalidEnum:         resultCode == hmiapi.ResultInvalidEnum,
	}
}

// IsAvailable returns false only if HMI reported the interface as not available. Interface which did not answer
// IsReady is treated as available.
func (responseInfo ResponseInfo) IsAvailable() bool {
	return responseInfo.InterfaceState != hmiapi.StateNotAvailable
}

// MergeInfos joins not empty infos.
func MergeInfos(infos ...string) (merged string) {
	parts := make([]string, 0, len(infos))

	for _, info := range infos {
		if info != "" {
			parts = append(parts, info)
		}
	}

	return strings.Join(parts, infoSeparator)
}

// MergeResponseInfos joins infos of two interfaces. Info of not available interface is dropped when other interface
// provides own info.
func MergeResponseInfos(first, second ResponseInfo) (merged string) {
	firstNotAvailable := !first.IsAvailable()
	secondNotAvailable := !second.IsAvailable()

	if firstNotAvailable && !secondNotAvailable && second.Info != "" {
		return second.Info
	}

	if secondNotAvailable && !firstNotAvailable && first.Info != "" {
		return first.Info
	}

	return MergeInfos(first.Info, second.Info)
}

// IsResultCodeUnsupported returns true if second interface does not support the request while first one succeeded
// or was not used, or both interfaces do not support it.
func IsResultCodeUnsupported(first, second ResponseInfo) bool {
	firstOKSecondUnsupported := (first.IsOK || first.IsInvalidEnum) && second.IsUnsupportedResource
	bothUnsupported := first.IsUnsupportedResource && second.IsUnsupportedResource

	return firstOKSecondUnsupported || bothUnsupported
}

// IsAnyAborted returns true if any interface aborted the request.
func IsAnyAborted(responseInfos ...ResponseInfo) bool {
	for _, responseInfo := range responseInfos {
		if responseInfo.IsAborted {
			return true
		}
	}

	return false
}

// PrepareResultForMobileResponse returns success flag of two interfaces response.
func PrepareResultForMobileResponse(first, second ResponseInfo) (success bool) {
	if (first.IsOK || first.IsInvalidEnum) && (second.IsOK || second.IsInvalidEnum) {
		return !(first.IsInvalidEnum && second.IsInvalidEnum)
	}

	return (first.IsOK && second.IsUnsupportedResource) || (second.IsOK && first.IsUnsupportedResource)
}
