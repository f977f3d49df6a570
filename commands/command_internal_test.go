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
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type countingSender struct {
	sync.Mutex
	responses []mobileapi.Response
}

type awaitingOperation struct{}

type nullHMI struct{}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestTimeoutFiredTwice(t *testing.T) {
	sender := &countingSender{}
	command := startAwaitingCommand(t, sender)

	timerGen := command.timerGen

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			command.onTimeout(timerGen)
		}()
	}

	wg.Wait()

	if count := sender.count(); count != 1 {
		t.Errorf("Wrong responses count: %d", count)
	}

	if command.State() != StateCompleted {
		t.Errorf("Wrong command state: %s", command.State())
	}
}

func TestTimeoutRacesCompletion(t *testing.T) {
	sender := &countingSender{}
	command := startAwaitingCommand(t, sender)

	timerGen := command.timerGen
	correlationID := command.awaiting[hmiapi.InterfaceUI]

	response, err := hmiapi.NewResponse(hmiapi.UIPerformAudioPassThru, correlationID, hmiapi.ResultSuccess, "", nil)
	if err != nil {
		t.Fatalf("Can't create response: %s", err)
	}

	var wg sync.WaitGroup

	wg.Add(2) //nolint:gomnd

	go func() {
		defer wg.Done()

		command.onEvent(response)
	}()

	go func() {
		defer wg.Done()

		command.onTimeout(timerGen)
	}()

	wg.Wait()

	if count := sender.count(); count != 1 {
		t.Errorf("Wrong responses count: %d", count)
	}
}

func TestOutdatedTimerIgnored(t *testing.T) {
	sender := &countingSender{}
	command := startAwaitingCommand(t, sender)

	timerGen := command.timerGen

	command.process(func() { command.ResetTimeout(time.Minute) })

	command.onTimeout(timerGen)

	if count := sender.count(); count != 0 {
		t.Errorf("Wrong responses count: %d", count)
	}

	if command.State() != StateAwaiting {
		t.Errorf("Wrong command state: %s", command.State())
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func startAwaitingCommand(t *testing.T, sender *countingSender) (command *Command) {
	t.Helper()

	appRegistry := apps.New()

	manager := New(Config{DefaultTimeout: time.Second}, testclock.NewClock(time.Now()),
		&nullHMI{}, sender, appRegistry, nil)

	app, err := manager.RegisterApplication("app", "App")
	if err != nil {
		t.Fatalf("Can't register app: %s", err)
	}

	manager.RegisterOperation(mobileapi.PerformAudioPassThru, func(*Command) (Operation, error) {
		return &awaitingOperation{}, nil
	})

	manager.ProcessRequest(mobileapi.Request{
		FunctionID: mobileapi.PerformAudioPassThru, ConnectionKey: app.ConnectionKey, CorrelationID: 1,
	})

	commands := manager.getCommands(func(*Command) bool { return true })
	if len(commands) != 1 {
		t.Fatalf("Wrong commands count: %d", len(commands))
	}

	if commands[0].State() != StateAwaiting {
		t.Fatalf("Wrong command state: %s", commands[0].State())
	}

	return commands[0]
}

func (*nullHMI) SendMessageToHMI(*hmiapi.Message) {}

func (sender *countingSender) SendResponse(response mobileapi.Response) {
	sender.Lock()
	defer sender.Unlock()

	sender.responses = append(sender.responses, response)
}

func (sender *countingSender) SendNotification(mobileapi.Notification) {}

func (sender *countingSender) count() int {
	sender.Lock()
	defer sender.Unlock()

	return len(sender.responses)
}

func (*awaitingOperation) Validate(*Command) *Result { return nil }

func (*awaitingOperation) Run(command *Command) {
	if _, err := command.SendHMIRequest(hmiapi.UIPerformAudioPassThru, nil, true); err != nil {
		panic(err)
	}
}

func (*awaitingOperation) OnEvent(*Command, *hmiapi.Message) {}

func (*awaitingOperation) PrepareResponse(*Command) Result {
	return Result{Success: true, ResultCode: mobileapi.ResultSuccess}
}
