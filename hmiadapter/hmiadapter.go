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

// Package hmiadapter implements websocket JSON-RPC HMI adapter.
//
// HMI components connect to the adapter and register themselves with MB.registerComponent. Requests are routed to
// the connection of the target interface component, notifications are routed to connections subscribed with
// MB.subscribeTo or to the component connection if nobody is subscribed.
package hmiadapter

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/wsserver"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const adapterName = "hmi"

const jsonRPCVersion = "2.0"

const (
	methodRegisterComponent   = "MB.registerComponent"
	methodUnregisterComponent = "MB.unregisterComponent"
	methodSubscribeTo         = "MB.subscribeTo"
	methodUnsubscribeFrom     = "MB.unsubscribeFrom"
)

const componentIDStep = 100

// JSON-RPC error codes.
const (
	errorCodeInvalidRequest = -32600
	errorCodeInvalidParams  = -32602
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrComponentNotRegistered is returned when no HMI component is registered for message interface.
var ErrComponentNotRegistered = errors.New("component not registered")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Receiver receives messages from HMI.
type Receiver interface {
	OnMessageReceived(message *hmiapi.Message)
}

// Adapter websocket JSON-RPC HMI adapter.
type Adapter struct {
	sync.Mutex
	server      *wsserver.Server
	receiver    Receiver
	interfaces  []hmiapi.Interface
	components  map[hmiapi.Interface]*connection
	subscribers map[hmiapi.FunctionID]map[*connection]struct{}
	nextID      int
}

type connection struct {
	adapter *Adapter
	client  *wsserver.Client
}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint32         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *rpcErrorData `json:"data,omitempty"`
}

type rpcErrorData struct {
	Method string `json:"method"`
}

type componentParams struct {
	ComponentName hmiapi.Interface `json:"componentName"`
}

type subscribeParams struct {
	PropertyName hmiapi.FunctionID `json:"propertyName"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates HMI adapter serving interfaces.
func New(url, cert, key string, interfaces []hmiapi.Interface, receiver Receiver) (adapter *Adapter, err error) {
	log.WithFields(log.Fields{"url": url, "interfaces": interfaces}).Debug("Create HMI adapter")

	adapter = &Adapter{
		receiver:    receiver,
		interfaces:  interfaces,
		components:  make(map[hmiapi.Interface]*connection),
		subscribers: make(map[hmiapi.FunctionID]map[*connection]struct{}),
	}

	if adapter.server, err = wsserver.New(adapterName, url, cert, key, adapter.newConnection); err != nil {
		return nil, err
	}

	return adapter, nil
}

// Close closes adapter.
func (adapter *Adapter) Close() {
	log.Debug("Close HMI adapter")

	adapter.server.Close()
}

// Addr returns adapter listen address.
func (adapter *Adapter) Addr() string {
	return adapter.server.Addr()
}

// Name returns adapter name.
func (adapter *Adapter) Name() string {
	return adapterName
}

// Interfaces returns served interfaces.
func (adapter *Adapter) Interfaces() []hmiapi.Interface {
	return adapter.interfaces
}

// SendMessage sends message to HMI component.
func (adapter *Adapter) SendMessage(message *hmiapi.Message) (err error) {
	data, err := json.Marshal(toRPCMessage(message))
	if err != nil {
		return aoserrors.Wrap(err)
	}

	connections := adapter.getConnections(message)
	if len(connections) == 0 {
		return aoserrors.Wrap(ErrComponentNotRegistered)
	}

	for _, conn := range connections {
		if sendErr := conn.client.SendMessage(websocket.TextMessage, data); sendErr != nil && err == nil {
			err = sendErr
		}
	}

	return err
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (adapter *Adapter) newConnection(client *wsserver.Client) (processor wsserver.MessageProcessor, err error) {
	return &connection{adapter: adapter, client: client}, nil
}

func (adapter *Adapter) getConnections(message *hmiapi.Message) (connections []*connection) {
	adapter.Lock()
	defer adapter.Unlock()

	if message.Type == hmiapi.MessageNotification {
		for conn := range adapter.subscribers[message.FunctionID] {
			connections = append(connections, conn)
		}

		if len(connections) != 0 {
			return connections
		}
	}

	if conn, ok := adapter.components[message.Interface()]; ok {
		connections = append(connections, conn)
	}

	return connections
}

func (adapter *Adapter) registerComponent(conn *connection, component hmiapi.Interface) (id int) {
	adapter.Lock()
	defer adapter.Unlock()

	if prev, ok := adapter.components[component]; ok && prev != conn {
		log.WithField("component", component).Warn("Component connection replaced")
	}

	adapter.components[component] = conn
	adapter.nextID += componentIDStep

	log.WithFields(log.Fields{"component": component, "remoteAddr": conn.client.RemoteAddr}).Info("Register component")

	return adapter.nextID
}

func (adapter *Adapter) unregisterComponent(conn *connection, component hmiapi.Interface) {
	adapter.Lock()
	defer adapter.Unlock()

	if adapter.components[component] == conn {
		log.WithField("component", component).Info("Unregister component")

		delete(adapter.components, component)
	}
}

func (adapter *Adapter) subscribe(conn *connection, functionID hmiapi.FunctionID) {
	adapter.Lock()
	defer adapter.Unlock()

	if _, ok := adapter.subscribers[functionID]; !ok {
		adapter.subscribers[functionID] = make(map[*connection]struct{})
	}

	adapter.subscribers[functionID][conn] = struct{}{}
}

func (adapter *Adapter) unsubscribe(conn *connection, functionID hmiapi.FunctionID) {
	adapter.Lock()
	defer adapter.Unlock()

	delete(adapter.subscribers[functionID], conn)

	if len(adapter.subscribers[functionID]) == 0 {
		delete(adapter.subscribers, functionID)
	}
}

func (adapter *Adapter) removeConnection(conn *connection) {
	adapter.Lock()
	defer adapter.Unlock()

	for component, registered := range adapter.components {
		if registered == conn {
			log.WithField("component", component).Info("Component disconnected")

			delete(adapter.components, component)
		}
	}

	for functionID, connections := range adapter.subscribers {
		delete(connections, conn)

		if len(connections) == 0 {
			delete(adapter.subscribers, functionID)
		}
	}
}

func (conn *connection) ProcessMessage(messageType int, data []byte) (response []byte, err error) {
	if messageType != websocket.TextMessage {
		return nil, aoserrors.New("incoming message in unsupported format")
	}

	var request rpcMessage

	if err = json.Unmarshal(data, &request); err != nil {
		return createErrorResponse(nil, "", errorCodeInvalidRequest, err.Error())
	}

	if request.JSONRPC != jsonRPCVersion {
		return createErrorResponse(request.ID, request.Method, errorCodeInvalidRequest, "wrong jsonrpc version")
	}

	switch {
	case request.Method == methodRegisterComponent || request.Method == methodUnregisterComponent:
		return conn.processComponent(request)

	case request.Method == methodSubscribeTo || request.Method == methodUnsubscribeFrom:
		return conn.processSubscription(request)

	case request.Method != "":
		conn.processHMIMessage(request)

	case request.ID != nil:
		conn.processResponse(request)

	default:
		return createErrorResponse(nil, "", errorCodeInvalidRequest, "unknown message")
	}

	return nil, nil
}

func (conn *connection) Close() {
	conn.adapter.removeConnection(conn)
}

func (conn *connection) processComponent(request rpcMessage) (response []byte, err error) {
	var params componentParams

	if err = json.Unmarshal(request.Params, &params); err != nil || params.ComponentName == "" {
		return createErrorResponse(request.ID, request.Method, errorCodeInvalidParams, "wrong component name")
	}

	if request.Method == methodUnregisterComponent {
		conn.adapter.unregisterComponent(conn, params.ComponentName)

		return createResponse(request.ID, nil)
	}

	return createResponse(request.ID, conn.adapter.registerComponent(conn, params.ComponentName))
}

func (conn *connection) processSubscription(request rpcMessage) (response []byte, err error) {
	var params subscribeParams

	if err = json.Unmarshal(request.Params, &params); err != nil || params.PropertyName == "" {
		return createErrorResponse(request.ID, request.Method, errorCodeInvalidParams, "wrong property name")
	}

	if request.Method == methodUnsubscribeFrom {
		conn.adapter.unsubscribe(conn, params.PropertyName)
	} else {
		conn.adapter.subscribe(conn, params.PropertyName)
	}

	return createResponse(request.ID, nil)
}

func (conn *connection) processHMIMessage(request rpcMessage) {
	message := &hmiapi.Message{
		Type:       hmiapi.MessageNotification,
		FunctionID: hmiapi.FunctionID(request.Method),
		Params:     request.Params,
		Result:     hmiapi.ResultInvalidEnum,
	}

	if request.ID != nil {
		message.Type = hmiapi.MessageRequest
		message.CorrelationID = *request.ID
	}

	conn.adapter.receiver.OnMessageReceived(message)
}

func (conn *connection) processResponse(request rpcMessage) {
	message, err := fromRPCResponse(request)
	if err != nil {
		log.WithField("remoteAddr", conn.client.RemoteAddr).Errorf("Invalid HMI response: %s", err)

		return
	}

	conn.adapter.receiver.OnMessageReceived(message)
}
