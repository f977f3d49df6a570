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

package hmiadapter

import (
	"encoding/json"

	"github.com/aoscloud/aos_common/aoserrors"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	resultCodeField   = "code"
	resultMethodField = "method"
	resultInfoField   = "info"
)

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func toRPCMessage(message *hmiapi.Message) (rpc rpcMessage) {
	rpc.JSONRPC = jsonRPCVersion

	switch message.Type {
	case hmiapi.MessageRequest:
		correlationID := message.CorrelationID

		rpc.ID = &correlationID
		rpc.Method = string(message.FunctionID)
		rpc.Params = message.Params

	case hmiapi.MessageNotification:
		rpc.Method = string(message.FunctionID)
		rpc.Params = message.Params

	case hmiapi.MessageResponse:
		correlationID := message.CorrelationID

		rpc.ID = &correlationID
		rpc.Result = responseResult(message)

	case hmiapi.MessageErrorResponse:
		correlationID := message.CorrelationID

		rpc.ID = &correlationID
		rpc.Error = &rpcError{
			Code: int(message.Result), Message: message.Info, Data: &rpcErrorData{Method: string(message.FunctionID)},
		}
	}

	return rpc
}

func responseResult(message *hmiapi.Message) (result json.RawMessage) {
	fields := make(map[string]interface{})

	if len(message.Params) != 0 {
		var params map[string]json.RawMessage

		if err := json.Unmarshal(message.Params, &params); err == nil {
			for name, value := range params {
				fields[name] = value
			}
		}
	}

	fields[resultCodeField] = int(message.Result)
	fields[resultMethodField] = message.FunctionID

	if message.Info != "" {
		fields[resultInfoField] = message.Info
	}

	result, _ = json.Marshal(fields)

	return result
}

func fromRPCResponse(rpc rpcMessage) (message *hmiapi.Message, err error) {
	if rpc.Error != nil {
		if rpc.Error.Data == nil || rpc.Error.Data.Method == "" {
			return nil, aoserrors.New("error response without method")
		}

		return hmiapi.NewResponse(hmiapi.FunctionID(rpc.Error.Data.Method), *rpc.ID,
			hmiapi.Result(rpc.Error.Code), rpc.Error.Message, nil)
	}

	var fields map[string]json.RawMessage

	if err = json.Unmarshal(rpc.Result, &fields); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	var (
		code   int
		method string
		info   string
	)

	if err = json.Unmarshal(fields[resultCodeField], &code); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if err = json.Unmarshal(fields[resultMethodField], &method); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if value, ok := fields[resultInfoField]; ok {
		if err = json.Unmarshal(value, &info); err != nil {
			return nil, aoserrors.Wrap(err)
		}
	}

	delete(fields, resultCodeField)
	delete(fields, resultMethodField)
	delete(fields, resultInfoField)

	var params interface{}

	if len(fields) != 0 {
		params = fields
	}

	return hmiapi.NewResponse(hmiapi.FunctionID(method), *rpc.ID, hmiapi.Result(code), info, params)
}

func createResponse(id *uint32, result interface{}) (response []byte, err error) {
	rpc := rpcMessage{JSONRPC: jsonRPCVersion, ID: id}

	if rpc.Result, err = json.Marshal(result); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if response, err = json.Marshal(rpc); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return response, nil
}

func createErrorResponse(id *uint32, method string, code int, errorMessage string) (response []byte, err error) {
	rpc := rpcMessage{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: errorMessage}}

	if method != "" {
		rpc.Error.Data = &rpcErrorData{Method: method}
	}

	if response, err = json.Marshal(rpc); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return response, nil
}
