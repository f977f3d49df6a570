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

// Package canadapter implements HMI adapter for interfaces served by the vehicle bus.
package canadapter

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/juju/clock"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const adapterName = "can"

const reconnectInterval = 5 * time.Second

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrConnectionFailed is returned when vehicle bus connection is not opened.
var ErrConnectionFailed = errors.New("vehicle bus connection failed")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Receiver receives messages from vehicle bus.
type Receiver interface {
	OnMessageReceived(message *hmiapi.Message)
}

// Adapter vehicle bus HMI adapter.
type Adapter struct {
	clock       clock.Clock
	connection  Connection
	receiver    Receiver
	interfaces  []hmiapi.Interface
	stopChannel chan struct{}
	waitGroup   sync.WaitGroup
}

type frame struct {
	Type          string          `json:"type"`
	Function      string          `json:"function"`
	CorrelationID uint32          `json:"correlationId,omitempty"`
	Code          *hmiapi.Result  `json:"code,omitempty"`
	Info          string          `json:"info,omitempty"`
	Params        json.RawMessage `json:"params,omitempty"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New opens vehicle bus connection and starts reading frames.
func New(
	clk clock.Clock, connection Connection, interfaces []hmiapi.Interface, receiver Receiver,
) (adapter *Adapter, err error) {
	log.WithField("interfaces", interfaces).Debug("Create CAN adapter")

	if state := connection.OpenConnection(); state != StateOpened {
		return nil, aoserrors.Errorf("%w: %s", ErrConnectionFailed, state)
	}

	adapter = &Adapter{
		clock:       clk,
		connection:  connection,
		receiver:    receiver,
		interfaces:  interfaces,
		stopChannel: make(chan struct{}),
	}

	adapter.waitGroup.Add(1)

	go adapter.run()

	return adapter, nil
}

// Close closes vehicle bus connection.
func (adapter *Adapter) Close() {
	log.Debug("Close CAN adapter")

	close(adapter.stopChannel)
	adapter.connection.CloseConnection()
	adapter.waitGroup.Wait()
}

// Name returns adapter name.
func (adapter *Adapter) Name() string {
	return adapterName
}

// Interfaces returns served interfaces.
func (adapter *Adapter) Interfaces() []hmiapi.Interface {
	return adapter.interfaces
}

// SendMessage writes message frame to vehicle bus.
func (adapter *Adapter) SendMessage(message *hmiapi.Message) (err error) {
	data := frame{
		Type:          message.Type.String(),
		Function:      string(message.FunctionID),
		CorrelationID: message.CorrelationID,
		Info:          message.Info,
		Params:        message.Params,
	}

	if message.IsResponse() {
		code := message.Result
		data.Code = &code
	}

	frameJSON, err := json.Marshal(data)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	adapter.connection.Send(frameJSON)

	if state := adapter.connection.Flash(); state != StateOpened {
		return aoserrors.Errorf("%w: %s", ErrConnectionFailed, state)
	}

	return nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (adapter *Adapter) run() {
	defer adapter.waitGroup.Done()

	for {
		select {
		case <-adapter.stopChannel:
			return

		default:
		}

		state := adapter.connection.GetData()

		switch state {
		case StateOpened:
			if data := adapter.connection.Data(); data != nil {
				adapter.processFrame(data)
			}

		case StateInvalid:
			if !adapter.reconnect() {
				return
			}

		default:
			return
		}
	}
}

func (adapter *Adapter) reconnect() bool {
	log.Warn("Vehicle bus connection lost, reconnecting")

	adapter.connection.CloseConnection()

	for {
		select {
		case <-adapter.stopChannel:
			return false

		case <-adapter.clock.After(reconnectInterval):
			if adapter.connection.OpenConnection() == StateOpened {
				log.Info("Vehicle bus connection restored")

				return true
			}
		}
	}
}

func (adapter *Adapter) processFrame(data []byte) {
	message, err := parseFrame(data)
	if err != nil {
		log.Errorf("Invalid vehicle bus frame: %s", err)

		return
	}

	adapter.receiver.OnMessageReceived(message)
}

func parseFrame(data []byte) (message *hmiapi.Message, err error) {
	var received frame

	if err = json.Unmarshal(data, &received); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if received.Function == "" {
		return nil, aoserrors.New("frame without function")
	}

	message = &hmiapi.Message{
		FunctionID:    hmiapi.FunctionID(received.Function),
		CorrelationID: received.CorrelationID,
		Params:        received.Params,
		Result:        hmiapi.ResultInvalidEnum,
		Info:          received.Info,
	}

	switch received.Type {
	case hmiapi.MessageRequest.String():
		message.Type = hmiapi.MessageRequest

	case hmiapi.MessageNotification.String():
		message.Type = hmiapi.MessageNotification

	case hmiapi.MessageResponse.String(), hmiapi.MessageErrorResponse.String():
		if received.Code == nil {
			return nil, aoserrors.New("response without code")
		}

		message.Type = hmiapi.MessageResponse
		message.Result = *received.Code

		if !message.Result.IsSuccess() {
			message.Type = hmiapi.MessageErrorResponse
		}

	default:
		return nil, aoserrors.Errorf("unknown frame type: %s", received.Type)
	}

	return message, nil
}
