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

// Package commands provides command correlation engine: it turns mobile requests into commands, correlates HMI
// responses and notifications with them and produces single mobile response per request.
package commands

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/juju/clock"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/eventengine"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const sendErrorInfo = "HMI is not reachable"

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// HMISender sends messages to HMI.
type HMISender interface {
	SendMessageToHMI(message *hmiapi.Message)
}

// MobileSender sends responses and notifications to mobile applications.
type MobileSender interface {
	SendResponse(response mobileapi.Response)
	SendNotification(notification mobileapi.Notification)
}

// AppListener receives application lifecycle events. Listeners are called outside of command processing.
type AppListener interface {
	OnAppRegistered(app apps.Application)
	OnAppUnregistered(app apps.Application)
}

// MetricsCollector command metrics.
type MetricsCollector interface {
	CommandStarted(functionID mobileapi.FunctionID)
	CommandCompleted(functionID mobileapi.FunctionID, resultCode mobileapi.Result)
	CommandTimedOut(functionID mobileapi.FunctionID)
}

// Config manager configuration.
type Config struct {
	// DefaultTimeout platform default command timeout
	DefaultTimeout time.Duration
	// ReadyInterfaces interfaces queried with IsReady when HMI is ready
	ReadyInterfaces []hmiapi.Interface
}

// Manager command manager.
type Manager struct {
	sync.Mutex
	clock           clock.Clock
	hmi             HMISender
	mobile          MobileSender
	apps            *apps.Registry
	interfaceStates *hmiapi.InterfaceStates
	dispatcher      *eventengine.Dispatcher
	metrics         MetricsCollector
	defaultTimeout  time.Duration
	readyInterfaces []hmiapi.Interface
	operations      map[mobileapi.FunctionID]OperationFactory
	commands        map[commandKey]*Command
	appListeners    []AppListener
	isReadyRequests map[uint32]hmiapi.Interface
	correlationID   uint32
	internalID      int32
}

type commandKey struct {
	connectionKey uint32
	correlationID int32
	internal      bool
}

type appParams struct {
	AppID uint32 `json:"appID"`
}

type isReadyParams struct {
	Available bool `json:"available"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates command manager. Metrics collector is optional.
func New(
	cfg Config, clk clock.Clock, hmi HMISender, mobile MobileSender, appRegistry *apps.Registry,
	metrics MetricsCollector,
) (manager *Manager) {
	log.Debug("Create command manager")

	return &Manager{
		clock:           clk,
		hmi:             hmi,
		mobile:          mobile,
		apps:            appRegistry,
		interfaceStates: hmiapi.NewInterfaceStates(),
		dispatcher:      eventengine.New(),
		metrics:         metrics,
		defaultTimeout:  cfg.DefaultTimeout,
		readyInterfaces: cfg.ReadyInterfaces,
		operations:      make(map[mobileapi.FunctionID]OperationFactory),
		commands:        make(map[commandKey]*Command),
		isReadyRequests: make(map[uint32]hmiapi.Interface),
	}
}

// Close terminates pending commands without responses.
func (manager *Manager) Close() {
	log.Debug("Close command manager")

	for _, command := range manager.getCommands(func(*Command) bool { return true }) {
		command.terminate()
	}
}

// RegisterOperation registers operation factory for mobile function.
func (manager *Manager) RegisterOperation(functionID mobileapi.FunctionID, factory OperationFactory) {
	manager.Lock()
	defer manager.Unlock()

	log.WithField("function", functionID).Debug("Register operation")

	manager.operations[functionID] = factory
}

// AddAppListener adds application lifecycle listener.
func (manager *Manager) AddAppListener(listener AppListener) {
	manager.Lock()
	defer manager.Unlock()

	manager.appListeners = append(manager.appListeners, listener)
}

// InterfaceStates returns HMI interface states.
func (manager *Manager) InterfaceStates() *hmiapi.InterfaceStates {
	return manager.interfaceStates
}

// Dispatcher returns event dispatcher.
func (manager *Manager) Dispatcher() *eventengine.Dispatcher {
	return manager.dispatcher
}

// Application returns registered application by connection key.
func (manager *Manager) Application(connectionKey uint32) (app apps.Application, ok bool) {
	return manager.apps.Get(connectionKey)
}

// SendHMIRequest sends request to HMI on behalf of the broker itself. Response, if handler is set, is passed to
// the handler once.
func (manager *Manager) SendHMIRequest(
	functionID hmiapi.FunctionID, params interface{}, handler eventengine.EventHandler,
) (err error) {
	correlationID := manager.nextHMICorrelationID()

	message, err := hmiapi.NewRequest(functionID, correlationID, params)
	if err != nil {
		return err
	}

	if handler != nil {
		subscriber := eventengine.NewSubscriber()

		manager.dispatcher.SubscribeCorrelated(subscriber, functionID, correlationID, func(message *hmiapi.Message) {
			manager.dispatcher.UnsubscribeAll(subscriber)
			handler(message)
		})
	}

	log.WithFields(log.Fields{"function": functionID, "hmiCorrelationID": correlationID}).Debug("Send HMI request")

	manager.hmi.SendMessageToHMI(message)

	return nil
}

// ProcessRequest processes mobile request.
func (manager *Manager) ProcessRequest(request mobileapi.Request) {
	log.WithFields(log.Fields{
		"function": request.FunctionID, "connectionKey": request.ConnectionKey,
		"correlationID": request.CorrelationID, "internal": request.Internal,
	}).Debug("Process request")

	command, factory, result := manager.createCommand(request)
	if result != nil {
		manager.sendResult(request, *result)

		return
	}

	if manager.metrics != nil {
		manager.metrics.CommandStarted(request.FunctionID)
	}

	command.start(factory)
}

// ProcessInternalRequest processes request issued by broker itself on behalf of application.
func (manager *Manager) ProcessInternalRequest(
	functionID mobileapi.FunctionID, connectionKey uint32, params interface{},
) (err error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	manager.ProcessRequest(mobileapi.Request{
		FunctionID:    functionID,
		ConnectionKey: connectionKey,
		CorrelationID: atomic.AddInt32(&manager.internalID, 1),
		Params:        rawParams,
		Internal:      true,
	})

	return nil
}

// UpdateRequestTimeout replaces pending request deadline.
func (manager *Manager) UpdateRequestTimeout(
	connectionKey uint32, correlationID int32, timeout time.Duration,
) (err error) {
	manager.Lock()
	command, ok := manager.commands[commandKey{connectionKey: connectionKey, correlationID: correlationID}]
	manager.Unlock()

	if !ok {
		return aoserrors.Errorf("request %d of %d not found", correlationID, connectionKey)
	}

	command.process(func() { command.ResetTimeout(timeout) })

	return nil
}

// NumPendingCommands returns number of pending commands.
func (manager *Manager) NumPendingCommands() int {
	manager.Lock()
	defer manager.Unlock()

	return len(manager.commands)
}

// RegisterApplication registers application.
func (manager *Manager) RegisterApplication(appID, name string) (app apps.Application, err error) {
	if app, err = manager.apps.Register(appID, name); err != nil {
		return app, err
	}

	manager.sendHMINotification(hmiapi.BasicCommunicationOnAppRegistered, map[string]interface{}{
		"application": map[string]interface{}{
			"appID": app.ConnectionKey, "appName": app.Name, "policyAppID": app.AppID,
		},
	})

	for _, listener := range manager.getAppListeners() {
		listener.OnAppRegistered(app)
	}

	return app, nil
}

// UnregisterApplication unregisters application and terminates its pending commands.
func (manager *Manager) UnregisterApplication(connectionKey uint32) (err error) {
	app, err := manager.apps.Unregister(connectionKey)
	if err != nil {
		return err
	}

	for _, command := range manager.getCommands(func(command *Command) bool {
		return command.ConnectionKey() == connectionKey
	}) {
		command.terminate()
	}

	manager.sendHMINotification(hmiapi.BasicCommunicationOnAppUnregistered, map[string]interface{}{
		"appID": connectionKey, "unexpectedDisconnect": false,
	})

	for _, listener := range manager.getAppListeners() {
		listener.OnAppUnregistered(app)
	}

	return nil
}

// OnMessageReceived processes message received from HMI. It is called on the transport inbound worker.
func (manager *Manager) OnMessageReceived(message *hmiapi.Message) {
	switch {
	case message.FunctionID == hmiapi.BasicCommunicationOnReady:
		manager.requestInterfacesReady()

	case message.FunctionID == hmiapi.BasicCommunicationOnAppActivated:
		manager.setAppHMILevel(message, mobileapi.HMILevelFull)

	case message.FunctionID == hmiapi.BasicCommunicationOnAppDeactivated:
		manager.setAppHMILevel(message, mobileapi.HMILevelBackground)

	case message.IsResponse() && message.FunctionID == message.Interface().IsReadyFunction():
		manager.processIsReady(message)

		return
	}

	if manager.dispatcher.Raise(message) == 0 && message.IsResponse() {
		log.WithFields(log.Fields{
			"function": message.FunctionID, "correlationID": message.CorrelationID,
		}).Warn("Stale or unexpected HMI response discarded")
	}
}

// OnErrorSending processes HMI sending error. Request failure is delivered to its command as GENERIC_ERROR response.
func (manager *Manager) OnErrorSending(message *hmiapi.Message, err error) {
	log.WithFields(log.Fields{
		"function": message.FunctionID, "correlationID": message.CorrelationID,
	}).Errorf("Can't send message to HMI: %s", err)

	if message.Type != hmiapi.MessageRequest {
		return
	}

	response, err := hmiapi.NewResponse(
		message.FunctionID, message.CorrelationID, hmiapi.ResultGenericError, sendErrorInfo, nil)
	if err != nil {
		log.Errorf("Can't create error response: %s", err)

		return
	}

	manager.OnMessageReceived(response)
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (manager *Manager) createCommand(
	request mobileapi.Request,
) (command *Command, factory OperationFactory, result *Result) {
	manager.Lock()
	defer manager.Unlock()

	factory, ok := manager.operations[request.FunctionID]
	if !ok {
		log.WithField("function", request.FunctionID).Error("Unsupported request")

		return nil, nil, &Result{ResultCode: mobileapi.ResultUnsupportedRequest}
	}

	key := commandKey{
		connectionKey: request.ConnectionKey, correlationID: request.CorrelationID, internal: request.Internal,
	}

	if _, ok := manager.commands[key]; ok {
		log.WithFields(log.Fields{
			"connectionKey": request.ConnectionKey, "correlationID": request.CorrelationID,
		}).Error("Duplicate correlation ID")

		return nil, nil, &Result{ResultCode: mobileapi.ResultInvalidID, Info: "Duplicate correlation ID"}
	}

	command = newCommand(manager, request)

	manager.commands[key] = command

	return command, factory, nil
}

func (manager *Manager) removeCommand(command *Command) {
	manager.Lock()
	defer manager.Unlock()

	delete(manager.commands, commandKey{
		connectionKey: command.request.ConnectionKey,
		correlationID: command.request.CorrelationID,
		internal:      command.request.Internal,
	})
}

func (manager *Manager) getCommands(filter func(command *Command) bool) (commands []*Command) {
	manager.Lock()
	defer manager.Unlock()

	for _, command := range manager.commands {
		if filter(command) {
			commands = append(commands, command)
		}
	}

	return commands
}

func (manager *Manager) getAppListeners() (listeners []AppListener) {
	manager.Lock()
	defer manager.Unlock()

	return append(listeners, manager.appListeners...)
}

func (manager *Manager) nextHMICorrelationID() uint32 {
	return atomic.AddUint32(&manager.correlationID, 1)
}

func (manager *Manager) sendResponse(command *Command, result Result) {
	if manager.metrics != nil {
		if command.reason == CompletedByTimeout {
			manager.metrics.CommandTimedOut(command.request.FunctionID)
		}

		manager.metrics.CommandCompleted(command.request.FunctionID, result.ResultCode)
	}

	manager.sendResult(command.request, result)
}

func (manager *Manager) sendResult(request mobileapi.Request, result Result) {
	entry := log.WithFields(log.Fields{
		"function":      request.FunctionID,
		"connectionKey": request.ConnectionKey,
		"correlationID": request.CorrelationID,
		"success":       result.Success,
		"resultCode":    result.ResultCode,
		"info":          result.Info,
	})

	if request.Internal {
		entry.Info("Internal request completed")

		return
	}

	response := mobileapi.Response{
		FunctionID:    request.FunctionID,
		ConnectionKey: request.ConnectionKey,
		CorrelationID: request.CorrelationID,
		Success:       result.Success,
		ResultCode:    result.ResultCode,
		Info:          result.Info,
	}

	if result.Params != nil {
		params, err := json.Marshal(result.Params)
		if err != nil {
			entry.Errorf("Can't marshal response params: %s", err)
		}

		response.Params = params
	}

	entry.Debug("Send response")

	manager.mobile.SendResponse(response)
}

func (manager *Manager) sendNotification(
	connectionKey uint32, functionID mobileapi.FunctionID, params interface{},
) (err error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	manager.mobile.SendNotification(mobileapi.Notification{
		FunctionID: functionID, ConnectionKey: connectionKey, Params: rawParams,
	})

	return nil
}

func (manager *Manager) sendHMINotification(functionID hmiapi.FunctionID, params interface{}) {
	message, err := hmiapi.NewNotification(functionID, params)
	if err != nil {
		log.WithField("function", functionID).Errorf("Can't create notification: %s", err)

		return
	}

	manager.hmi.SendMessageToHMI(message)
}

func (manager *Manager) requestInterfacesReady() {
	for _, iface := range manager.readyInterfaces {
		correlationID := manager.nextHMICorrelationID()

		message, err := hmiapi.NewRequest(iface.IsReadyFunction(), correlationID, nil)
		if err != nil {
			log.WithField("interface", iface).Errorf("Can't create IsReady request: %s", err)

			continue
		}

		manager.Lock()
		manager.isReadyRequests[correlationID] = iface
		manager.Unlock()

		manager.hmi.SendMessageToHMI(message)
	}
}

func (manager *Manager) processIsReady(message *hmiapi.Message) {
	manager.Lock()
	iface, ok := manager.isReadyRequests[message.CorrelationID]
	delete(manager.isReadyRequests, message.CorrelationID)
	manager.Unlock()

	if !ok {
		log.WithField("correlationID", message.CorrelationID).Warn("Unexpected IsReady response")

		return
	}

	if message.Type == hmiapi.MessageErrorResponse {
		log.WithFields(log.Fields{
			"interface": iface, "result": message.Result,
		}).Warn("Interface did not report its state")

		return
	}

	var params isReadyParams

	if err := message.DecodeParams(&params); err != nil {
		log.WithField("interface", iface).Errorf("Invalid IsReady response: %s", err)

		return
	}

	state := hmiapi.StateNotAvailable

	if params.Available {
		state = hmiapi.StateAvailable
	}

	manager.interfaceStates.SetInterfaceState(iface, state)
}

func (manager *Manager) setAppHMILevel(message *hmiapi.Message, level mobileapi.HMILevel) {
	var params appParams

	if err := message.DecodeParams(&params); err != nil {
		log.WithField("function", message.FunctionID).Errorf("Invalid notification params: %s", err)

		return
	}

	if err := manager.apps.SetHMILevel(params.AppID, level); err != nil {
		log.WithField("appID", params.AppID).Errorf("Can't set HMI level: %s", err)
	}
}
