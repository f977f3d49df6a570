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

// Package hmiapi provides HMI message types, function identifiers and result codes.
package hmiapi

import (
	"encoding/json"
	"strings"

	"github.com/aoscloud/aos_common/aoserrors"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// HMI interfaces.
const (
	InterfaceAny                Interface = "*"
	InterfaceUI                 Interface = "UI"
	InterfaceTTS                Interface = "TTS"
	InterfaceVR                 Interface = "VR"
	InterfaceVehicleInfo        Interface = "VehicleInfo"
	InterfaceBasicCommunication Interface = "BasicCommunication"
	InterfaceButtons            Interface = "Buttons"
	InterfaceNavigation         Interface = "Navigation"
	InterfaceRC                 Interface = "RC"
)

// Function identifiers.
const (
	UIPerformAudioPassThru FunctionID = "UI.PerformAudioPassThru"
	UIOnRecordStart        FunctionID = "UI.OnRecordStart"
	UIIsReady              FunctionID = "UI.IsReady"

	TTSSpeak          FunctionID = "TTS.Speak"
	TTSStopSpeaking   FunctionID = "TTS.StopSpeaking"
	TTSOnResetTimeout FunctionID = "TTS.OnResetTimeout"
	TTSIsReady        FunctionID = "TTS.IsReady"

	VRIsReady FunctionID = "VR.IsReady"

	VehicleInfoSubscribeVehicleData   FunctionID = "VehicleInfo.SubscribeVehicleData"
	VehicleInfoUnsubscribeVehicleData FunctionID = "VehicleInfo.UnsubscribeVehicleData"
	VehicleInfoIsReady                FunctionID = "VehicleInfo.IsReady"

	BasicCommunicationOnReady           FunctionID = "BasicCommunication.OnReady"
	BasicCommunicationOnAppRegistered   FunctionID = "BasicCommunication.OnAppRegistered"
	BasicCommunicationOnAppUnregistered FunctionID = "BasicCommunication.OnAppUnregistered"
	BasicCommunicationOnAppActivated    FunctionID = "BasicCommunication.OnAppActivated"
	BasicCommunicationOnAppDeactivated  FunctionID = "BasicCommunication.OnAppDeactivated"
)

// Message types.
const (
	MessageRequest MessageType = iota
	MessageResponse
	MessageNotification
	MessageErrorResponse
)

// Speak types.
const (
	SpeakTypeAudioPassThru = "AUDIO_PASS_THRU"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Interface HMI functional subsystem.
type Interface string

// FunctionID HMI function identifier in "<Interface>.<Name>" form.
type FunctionID string

// MessageType HMI message type.
type MessageType int

// Message HMI message. Messages are not modified after creation.
type Message struct {
	Type          MessageType
	FunctionID    FunctionID
	CorrelationID uint32
	Params        json.RawMessage
	Result        Result
	Info          string
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// Interface returns interface of the function.
func (functionID FunctionID) Interface() Interface {
	if index := strings.IndexByte(string(functionID), '.'); index > 0 {
		return Interface(functionID[:index])
	}

	return Interface(functionID)
}

// IsReadyFunction returns IsReady function identifier of the interface.
func (iface Interface) IsReadyFunction() FunctionID {
	return FunctionID(string(iface) + ".IsReady")
}

func (messageType MessageType) String() string {
	return [...]string{"request", "response", "notification", "error"}[messageType]
}

// NewRequest creates new HMI request.
func NewRequest(functionID FunctionID, correlationID uint32, params interface{}) (message *Message, err error) {
	return newMessage(MessageRequest, functionID, correlationID, params)
}

// NewNotification creates new HMI notification.
func NewNotification(functionID FunctionID, params interface{}) (message *Message, err error) {
	return newMessage(MessageNotification, functionID, 0, params)
}

// NewResponse creates new HMI response.
func NewResponse(
	functionID FunctionID, correlationID uint32, result Result, info string, params interface{},
) (message *Message, err error) {
	messageType := MessageResponse

	if !result.IsSuccess() {
		messageType = MessageErrorResponse
	}

	if message, err = newMessage(messageType, functionID, correlationID, params); err != nil {
		return nil, err
	}

	message.Result = result
	message.Info = info

	return message, nil
}

// Interface returns message target or source interface.
func (message *Message) Interface() Interface {
	return message.FunctionID.Interface()
}

// IsResponse returns true if message is response or error response.
func (message *Message) IsResponse() bool {
	return message.Type == MessageResponse || message.Type == MessageErrorResponse
}

// DecodeParams decodes message params.
func (message *Message) DecodeParams(params interface{}) (err error) {
	if len(message.Params) == 0 {
		return nil
	}

	if err = json.Unmarshal(message.Params, params); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func newMessage(
	messageType MessageType, functionID FunctionID, correlationID uint32, params interface{},
) (message *Message, err error) {
	message = &Message{
		Type:          messageType,
		FunctionID:    functionID,
		CorrelationID: correlationID,
		Result:        ResultInvalidEnum,
	}

	switch value := params.(type) {
	case nil:

	case json.RawMessage:
		message.Params = value

	default:
		if message.Params, err = json.Marshal(params); err != nil {
			return nil, aoserrors.Wrap(err)
		}
	}

	return message, nil
}
