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
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/eventengine"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Command states.
const (
	StateCreated   = "created"
	StateAwaiting  = "awaitingResponses"
	StateCompleted = "completed"
)

// Completion reasons.
const (
	CompletedNormally CompletionReason = iota
	CompletedByTimeout
	CompletedByTermination
)

const (
	eventDispatch = "dispatch"
	eventComplete = "complete"
)

const timedOutInfo = "Request timed out"

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// CompletionReason command completion reason.
type CompletionReason int

// Result mobile facing result of command.
type Result struct {
	Success    bool
	ResultCode mobileapi.Result
	Info       string
	Params     interface{}
}

// Operation operation specific behavior of command.
type Operation interface {
	// Validate validates request synchronously. Not nil result completes command without HMI traffic.
	Validate(command *Command) (result *Result)
	// Run sends HMI requests.
	Run(command *Command)
	// OnEvent processes subscribed HMI response or notification. Response info is recorded before the call.
	OnEvent(command *Command, message *hmiapi.Message)
	// PrepareResponse aggregates interface results when nothing is awaited anymore.
	PrepareResponse(command *Command) (result Result)
}

// Finalizer releases operation side effects. It is called once on every completion path.
type Finalizer interface {
	Finalize(command *Command, reason CompletionReason)
}

// OperationFactory creates operation for request. Error completes request with INVALID_DATA.
type OperationFactory func(command *Command) (operation Operation, err error)

// Command in-flight mobile request.
type Command struct {
	sync.Mutex
	manager        *Manager
	request        mobileapi.Request
	app            apps.Application
	operation      Operation
	state          *fsm.FSM
	subscriber     eventengine.SubscriberID
	defaultTimeout time.Duration
	timer          clock.Timer
	timerGen       uint64
	awaiting       map[hmiapi.Interface]uint32
	responses      map[hmiapi.Interface]ResponseInfo
	result         *Result
	reason         CompletionReason
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

func (reason CompletionReason) String() string {
	return [...]string{"normally", "timeout", "termination"}[reason]
}

// Request returns mobile request.
func (command *Command) Request() mobileapi.Request {
	return command.request
}

// ConnectionKey returns connection key of owning application.
func (command *Command) ConnectionKey() uint32 {
	return command.request.ConnectionKey
}

// CorrelationID returns mobile correlation ID.
func (command *Command) CorrelationID() int32 {
	return command.request.CorrelationID
}

// Application returns owning application as it was at command start.
func (command *Command) Application() apps.Application {
	return command.app
}

// State returns command state.
func (command *Command) State() string {
	return command.state.Current()
}

// DefaultTimeout returns command timeout.
func (command *Command) DefaultTimeout() time.Duration {
	return command.defaultTimeout
}

// AddTimeout increases command timeout. It should be called from operation factory.
func (command *Command) AddTimeout(duration time.Duration) {
	command.defaultTimeout += duration
}

// InterfaceState returns HMI interface state.
func (command *Command) InterfaceState(iface hmiapi.Interface) hmiapi.InterfaceState {
	return command.manager.interfaceStates.GetInterfaceState(iface)
}

// IsInterfaceAvailable returns false only if HMI reported the interface as not available.
func (command *Command) IsInterfaceAvailable(iface hmiapi.Interface) bool {
	return command.InterfaceState(iface) != hmiapi.StateNotAvailable
}

// SendHMIRequest sends request to HMI. Awaited request response is recorded as interface response info.
func (command *Command) SendHMIRequest(
	functionID hmiapi.FunctionID, params interface{}, await bool,
) (correlationID uint32, err error) {
	correlationID = command.manager.nextHMICorrelationID()

	message, err := hmiapi.NewRequest(functionID, correlationID, params)
	if err != nil {
		return 0, err
	}

	if await {
		command.awaiting[functionID.Interface()] = correlationID

		command.manager.dispatcher.SubscribeCorrelated(
			command.subscriber, functionID, correlationID, command.onEvent)
	}

	command.log().WithFields(log.Fields{
		"function": functionID, "hmiCorrelationID": correlationID, "await": await,
	}).Debug("Send HMI request")

	command.manager.hmi.SendMessageToHMI(message)

	return correlationID, nil
}

// SendHMINotification sends notification to HMI.
func (command *Command) SendHMINotification(functionID hmiapi.FunctionID, params interface{}) (err error) {
	message, err := hmiapi.NewNotification(functionID, params)
	if err != nil {
		return err
	}

	command.log().WithField("function", functionID).Debug("Send HMI notification")

	command.manager.hmi.SendMessageToHMI(message)

	return nil
}

// Subscribe subscribes command to HMI notification.
func (command *Command) Subscribe(functionID hmiapi.FunctionID) {
	command.manager.dispatcher.Subscribe(command.subscriber, functionID, command.onEvent)
}

// Unsubscribe unsubscribes command from HMI notification or response.
func (command *Command) Unsubscribe(functionID hmiapi.FunctionID) {
	command.manager.dispatcher.Unsubscribe(command.subscriber, functionID)
}

// IsAwaiting returns true if command awaits interface response.
func (command *Command) IsAwaiting(iface hmiapi.Interface) bool {
	_, ok := command.awaiting[iface]

	return ok
}

// IsAwaitingAny returns true if command awaits any interface response.
func (command *Command) IsAwaitingAny() bool {
	return len(command.awaiting) != 0
}

// SetResponseInfo records interface response info without HMI request, e.g. for skipped interface.
func (command *Command) SetResponseInfo(iface hmiapi.Interface, resultCode hmiapi.Result, info string) {
	command.responses[iface] = NewResponseInfo(resultCode, command.InterfaceState(iface), info)
}

// ResponseInfo returns interface response info. Not contacted interface has INVALID_ENUM result code.
func (command *Command) ResponseInfo(iface hmiapi.Interface) ResponseInfo {
	if responseInfo, ok := command.responses[iface]; ok {
		return responseInfo
	}

	return NewResponseInfo(hmiapi.ResultInvalidEnum, command.InterfaceState(iface), "")
}

// ResetTimeout replaces command deadline by timeout from now.
func (command *Command) ResetTimeout(timeout time.Duration) {
	command.log().WithField("timeout", timeout).Debug("Reset timeout")

	command.armTimer(timeout)
}

// Complete completes command with result without waiting for awaited interfaces.
func (command *Command) Complete(result Result) {
	if command.result == nil {
		command.result = &result
	}
}

// SendNotification sends notification to owning application.
func (command *Command) SendNotification(functionID mobileapi.FunctionID, params interface{}) (err error) {
	return command.manager.sendNotification(command.ConnectionKey(), functionID, params)
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func newCommand(manager *Manager, request mobileapi.Request) (command *Command) {
	command = &Command{
		manager:        manager,
		request:        request,
		subscriber:     eventengine.NewSubscriber(),
		defaultTimeout: manager.defaultTimeout,
		awaiting:       make(map[hmiapi.Interface]uint32),
		responses:      make(map[hmiapi.Interface]ResponseInfo),
	}

	command.state = fsm.NewFSM(StateCreated,
		fsm.Events{
			{Name: eventDispatch, Src: []string{StateCreated}, Dst: StateAwaiting},
			{Name: eventComplete, Src: []string{StateCreated, StateAwaiting}, Dst: StateCompleted},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, event *fsm.Event) {
				command.log().WithField("state", event.Dst).Debug("Command state changed")
			},
		})

	return command
}

func (command *Command) log() *log.Entry {
	return log.WithFields(log.Fields{
		"function":      command.request.FunctionID,
		"connectionKey": command.request.ConnectionKey,
		"correlationID": command.request.CorrelationID,
	})
}

func (command *Command) start(factory OperationFactory) {
	command.process(func() {
		app, ok := command.manager.apps.Get(command.ConnectionKey())
		if !ok {
			command.log().Error("Application not registered")
			command.Complete(Result{ResultCode: mobileapi.ResultApplicationNotRegistered})

			return
		}

		command.app = app

		operation, err := factory(command)
		if err != nil {
			command.log().Errorf("Invalid request: %s", err)
			command.Complete(Result{ResultCode: mobileapi.ResultInvalidData, Info: "Invalid request parameters"})

			return
		}

		command.operation = operation

		if result := operation.Validate(command); result != nil {
			command.Complete(*result)

			return
		}

		operation.Run(command)
	})
}

func (command *Command) onEvent(message *hmiapi.Message) {
	command.process(func() {
		if message.IsResponse() {
			iface := message.Interface()

			if correlationID, ok := command.awaiting[iface]; ok && correlationID == message.CorrelationID {
				delete(command.awaiting, iface)

				command.responses[iface] = NewResponseInfo(
					message.Result, command.InterfaceState(iface), message.Info)
			}
		}

		command.operation.OnEvent(command, message)
	})
}

func (command *Command) onTimeout(timerGen uint64) {
	command.process(func() {
		if timerGen != command.timerGen {
			command.log().Debug("Skip outdated timer")

			return
		}

		command.log().Warn("Command timed out")

		command.reason = CompletedByTimeout

		command.Complete(Result{ResultCode: mobileapi.ResultTimedOut, Info: timedOutInfo})
	})
}

func (command *Command) terminate() {
	command.Lock()
	defer command.Unlock()

	if command.state.Is(StateCompleted) {
		return
	}

	command.log().Debug("Terminate command")

	command.reason = CompletedByTermination

	command.finish()
}

// process runs action under command lock and completes command if needed. Mobile response is sent once outside
// the lock.
func (command *Command) process(action func()) {
	var result *Result

	func() {
		command.Lock()
		defer command.Unlock()

		if command.state.Is(StateCompleted) {
			command.log().Warn("Stale event for completed command")

			return
		}

		action()

		result = command.checkCompletion()
	}()

	if result != nil {
		command.manager.sendResponse(command, *result)
	}
}

func (command *Command) checkCompletion() (result *Result) {
	if command.result == nil && !command.IsAwaitingAny() {
		if command.operation == nil {
			command.result = &Result{ResultCode: mobileapi.ResultGenericError}
		} else {
			prepared := command.operation.PrepareResponse(command)
			command.result = &prepared
		}
	}

	if command.result != nil {
		command.finish()

		return command.result
	}

	if command.state.Is(StateCreated) {
		if err := command.state.Event(context.Background(), eventDispatch); err != nil {
			command.log().Errorf("Can't change command state: %s", err)
		}

		if command.timer == nil {
			command.armTimer(command.defaultTimeout)
		}
	}

	return nil
}

func (command *Command) finish() {
	if err := command.state.Event(context.Background(), eventComplete); err != nil {
		command.log().Errorf("Can't change command state: %s", err)
	}

	if command.timer != nil {
		command.timer.Stop()
	}

	command.timerGen++

	command.manager.dispatcher.UnsubscribeAll(command.subscriber)

	if finalizer, ok := command.operation.(Finalizer); ok {
		finalizer.Finalize(command, command.reason)
	}

	command.manager.removeCommand(command)
}

func (command *Command) armTimer(timeout time.Duration) {
	if command.timer != nil {
		command.timer.Stop()
	}

	command.timerGen++

	timerGen := command.timerGen

	command.timer = command.manager.clock.AfterFunc(timeout, func() { command.onTimeout(timerGen) })
}
