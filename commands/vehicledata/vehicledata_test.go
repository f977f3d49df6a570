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

package vehicledata_test

import (
	"encoding/json"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/commands/vehicledata"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/subscriptions"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	defaultTimeout = 10 * time.Second
	waitTimeout    = 5 * time.Second
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type testHMI struct {
	messages chan *hmiapi.Message
}

type testMobile struct {
	responses chan mobileapi.Response
}

type testStorage struct {
	sync.Mutex
	subscriptions map[string][]string
}

type testEnv struct {
	clock    *testclock.Clock
	hmi      *testHMI
	mobile   *testMobile
	storage  *testStorage
	registry *subscriptions.Registry
	manager  *commands.Manager
}

/***********************************************************************************************************************
 * Init
 **********************************************************************************************************************/

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: false,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		FullTimestamp:    true,
	})
	log.SetLevel(log.DebugLevel)
	log.SetOutput(os.Stdout)
}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestSubscribeByTwoApps(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app1, 1, vehicledata.Params{"speed": true})

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	checkParams(t, request, "speed")

	env.respond(t, request, hmiapi.ResultSuccess, vehicledata.ResponseParams{
		"speed": {DataType: "VEHICLEDATA_SPEED", ResultCode: mobileapi.VehicleDataSuccess},
	})

	response := env.mobile.waitResponse(t)
	if !response.Success || response.ResultCode != mobileapi.ResultSuccess {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response, map[string]mobileapi.VehicleDataResultCode{"speed": mobileapi.VehicleDataSuccess})

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app2, 1, vehicledata.Params{"speed": true})

	response = env.mobile.waitResponse(t)
	if !response.Success || response.ResultCode != mobileapi.ResultSuccess ||
		response.Info != "Already subscribed by another application: speed" {
		t.Errorf("Wrong response: %v", response)
	}

	env.hmi.checkNoMessages(t)

	if subscribers := env.registry.Subscribers("speed"); !reflect.DeepEqual(
		subscribers, []uint32{app1.ConnectionKey, app2.ConnectionKey}) {
		t.Errorf("Wrong subscribers: %v", subscribers)
	}

	env.storage.check(t, "app1", []string{"speed"})
	env.storage.check(t, "app2", []string{"speed"})
}

func TestSubscribeIgnored(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	env.subscribe(t, app, 1, "speed")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, 2, vehicledata.Params{"speed": true})

	response := env.mobile.waitResponse(t)
	if response.Success || response.ResultCode != mobileapi.ResultIgnored {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response,
		map[string]mobileapi.VehicleDataResultCode{"speed": mobileapi.VehicleDataAlreadySubscribed})

	env.hmi.checkNoMessages(t)

	// Mix of new and already subscribed data gives warnings
	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, 3, vehicledata.Params{"speed": true, "rpm": true})

	env.respond(t, env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData), hmiapi.ResultSuccess, nil)

	response = env.mobile.waitResponse(t)
	if !response.Success || response.ResultCode != mobileapi.ResultWarnings {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response, map[string]mobileapi.VehicleDataResultCode{
		"speed": mobileapi.VehicleDataAlreadySubscribed, "rpm": mobileapi.VehicleDataSuccess,
	})
}

func TestSubscribePartialFailure(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, 1,
		vehicledata.Params{"gps": true, "speed": true, "unknown": true})

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	checkParams(t, request, "gps", "speed")

	env.respond(t, request, hmiapi.ResultSuccess, vehicledata.ResponseParams{
		"gps":   {DataType: "VEHICLEDATA_GPS", ResultCode: mobileapi.VehicleDataDisallowed},
		"speed": {DataType: "VEHICLEDATA_SPEED", ResultCode: mobileapi.VehicleDataSuccess},
	})

	response := env.mobile.waitResponse(t)
	if !response.Success || response.ResultCode != mobileapi.ResultWarnings {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response, map[string]mobileapi.VehicleDataResultCode{
		"gps": mobileapi.VehicleDataDisallowed, "speed": mobileapi.VehicleDataSuccess,
	})

	if env.registry.IsSubscribed(app.ConnectionKey, "gps") || !env.registry.IsSubscribed(app.ConnectionKey, "speed") {
		t.Error("Wrong registry state")
	}

	env.storage.check(t, "app1", []string{"speed"})
}

func TestSubscribeHMIFailure(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app1, 1, vehicledata.Params{"speed": true})

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	// Second application joins while HMI subscription is in progress
	env.sendRequest(t, mobileapi.SubscribeVehicleData, app2, 1, vehicledata.Params{"speed": true})

	if response := env.mobile.waitResponse(t); !response.Success {
		t.Errorf("Wrong response: %v", response)
	}

	env.respond(t, request, hmiapi.ResultRejected, nil)

	response := env.mobile.waitResponse(t)
	if response.Success || response.ResultCode != mobileapi.ResultRejected {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response, map[string]mobileapi.VehicleDataResultCode{"speed": mobileapi.VehicleDataNotAvailable})

	if subscribers := env.registry.Subscribers("speed"); len(subscribers) != 0 {
		t.Errorf("Subscription should be rolled back: %v", subscribers)
	}

	env.storage.check(t, "app1", nil)
	env.storage.check(t, "app2", nil)
}

func TestSubscribeTimeout(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, 1, vehicledata.Params{"speed": true})

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	if err := env.clock.WaitAdvance(defaultTimeout, waitTimeout, 1); err != nil {
		t.Fatalf("Can't advance clock: %s", err)
	}

	if response := env.mobile.waitResponse(t); response.Success || response.ResultCode != mobileapi.ResultTimedOut {
		t.Errorf("Wrong response: %v", response)
	}

	if env.registry.IsSubscribed(app.ConnectionKey, "speed") {
		t.Error("Subscription should be rolled back")
	}

	env.respond(t, request, hmiapi.ResultSuccess, nil)

	if env.registry.IsSubscribed(app.ConnectionKey, "speed") {
		t.Error("Late response should not subscribe")
	}
}

func TestInvalidData(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	data := []vehicledata.Params{{"unknown": true}, {"speed": false}, {}}

	for i, params := range data {
		for _, functionID := range []mobileapi.FunctionID{
			mobileapi.SubscribeVehicleData, mobileapi.UnsubscribeVehicleData,
		} {
			env.sendRequest(t, functionID, app, int32(i), params)

			if response := env.mobile.waitResponse(t); response.ResultCode != mobileapi.ResultInvalidData {
				t.Errorf("Wrong response for case %d: %v", i, response)
			}
		}
	}

	env.manager.ProcessRequest(mobileapi.Request{
		FunctionID: mobileapi.SubscribeVehicleData, ConnectionKey: app.ConnectionKey, CorrelationID: 100,
		Params: []byte(`{"speed": "yes"}`),
	})

	if response := env.mobile.waitResponse(t); response.ResultCode != mobileapi.ResultInvalidData {
		t.Errorf("Wrong response: %v", response)
	}

	env.hmi.checkNoMessages(t)
}

func TestVehicleInfoNotAvailable(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	env.manager.InterfaceStates().SetInterfaceState(hmiapi.InterfaceVehicleInfo, hmiapi.StateNotAvailable)

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, 1, vehicledata.Params{"speed": true})

	if response := env.mobile.waitResponse(t); response.ResultCode != mobileapi.ResultUnsupportedResource {
		t.Errorf("Wrong response: %v", response)
	}

	env.hmi.checkNoMessages(t)
}

func TestUnsubscribe(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	env.subscribe(t, app1, 1, "speed")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app2, 1, vehicledata.Params{"speed": true})
	env.mobile.waitResponse(t)

	// Not last subscriber
	env.sendRequest(t, mobileapi.UnsubscribeVehicleData, app1, 2, vehicledata.Params{"speed": true})

	if response := env.mobile.waitResponse(t); !response.Success || response.ResultCode != mobileapi.ResultSuccess {
		t.Errorf("Wrong response: %v", response)
	}

	env.hmi.checkNoMessages(t)

	// Last subscriber
	env.sendRequest(t, mobileapi.UnsubscribeVehicleData, app2, 2, vehicledata.Params{"speed": true, "rpm": true})

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoUnsubscribeVehicleData)

	checkParams(t, request, "speed")

	env.respond(t, request, hmiapi.ResultSuccess, nil)

	response := env.mobile.waitResponse(t)
	if !response.Success || response.ResultCode != mobileapi.ResultWarnings {
		t.Errorf("Wrong response: %v", response)
	}

	checkResults(t, response, map[string]mobileapi.VehicleDataResultCode{
		"speed": mobileapi.VehicleDataSuccess, "rpm": mobileapi.VehicleDataNotSubscribed,
	})

	env.sendRequest(t, mobileapi.UnsubscribeVehicleData, app2, 3, vehicledata.Params{"speed": true})

	if response := env.mobile.waitResponse(t); response.Success || response.ResultCode != mobileapi.ResultIgnored {
		t.Errorf("Wrong response: %v", response)
	}

	env.storage.check(t, "app1", nil)
	env.storage.check(t, "app2", nil)
}

func TestUnsubscribeHMIFailure(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app := env.registerApp(t, "app1")

	env.subscribe(t, app, 1, "speed")

	env.sendRequest(t, mobileapi.UnsubscribeVehicleData, app, 2, vehicledata.Params{"speed": true})

	env.respond(t, env.hmi.waitMessage(t, hmiapi.VehicleInfoUnsubscribeVehicleData), hmiapi.ResultGenericError, nil)

	if response := env.mobile.waitResponse(t); response.Success ||
		response.ResultCode != mobileapi.ResultGenericError {
		t.Errorf("Wrong response: %v", response)
	}

	if !env.registry.IsSubscribed(app.ConnectionKey, "speed") {
		t.Error("Subscription should be restored")
	}

	env.storage.check(t, "app1", []string{"speed"})
}

func TestUnsubscribeFailureDuringSubscribe(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	env.subscribe(t, app1, 1, "speed")

	env.sendRequest(t, mobileapi.UnsubscribeVehicleData, app1, 2, vehicledata.Params{"speed": true})

	unsubscribeRequest := env.hmi.waitMessage(t, hmiapi.VehicleInfoUnsubscribeVehicleData)

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app2, 1, vehicledata.Params{"speed": true})

	subscribeRequest := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	env.respond(t, unsubscribeRequest, hmiapi.ResultGenericError, nil)

	if response := env.mobile.waitResponse(t); response.Success ||
		response.ResultCode != mobileapi.ResultGenericError {
		t.Errorf("Wrong response: %v", response)
	}

	if !env.registry.IsSubscribed(app1.ConnectionKey, "speed") {
		t.Error("Subscription should be restored")
	}

	env.respond(t, subscribeRequest, hmiapi.ResultRejected, nil)

	if response := env.mobile.waitResponse(t); response.Success ||
		response.ResultCode != mobileapi.ResultRejected {
		t.Errorf("Wrong response: %v", response)
	}

	// Restored subscription joined pending one and is rolled back with it
	if subscribers := env.registry.Subscribers("speed"); len(subscribers) != 0 {
		t.Errorf("Subscription should be rolled back: %v", subscribers)
	}

	env.storage.check(t, "app1", nil)
	env.storage.check(t, "app2", nil)
}

func TestHMITransitions(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	type step struct {
		functionID mobileapi.FunctionID
		app        apps.Application
		hmiCall    hmiapi.FunctionID
	}

	steps := []step{
		{mobileapi.SubscribeVehicleData, app1, hmiapi.VehicleInfoSubscribeVehicleData},
		{mobileapi.SubscribeVehicleData, app2, ""},
		{mobileapi.UnsubscribeVehicleData, app1, ""},
		{mobileapi.SubscribeVehicleData, app1, ""},
		{mobileapi.UnsubscribeVehicleData, app2, ""},
		{mobileapi.UnsubscribeVehicleData, app1, hmiapi.VehicleInfoUnsubscribeVehicleData},
		{mobileapi.SubscribeVehicleData, app2, hmiapi.VehicleInfoSubscribeVehicleData},
	}

	for i, item := range steps {
		env.sendRequest(t, item.functionID, item.app, int32(i), vehicledata.Params{"rpm": true})

		if item.hmiCall != "" {
			env.respond(t, env.hmi.waitMessage(t, item.hmiCall), hmiapi.ResultSuccess, nil)
		}

		if response := env.mobile.waitResponse(t); !response.Success {
			t.Errorf("Wrong response for step %d: %v", i, response)
		}

		env.hmi.checkNoMessages(t)
	}
}

func TestUnregisterCleanup(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	app1 := env.registerApp(t, "app1")
	app2 := env.registerApp(t, "app2")

	env.subscribe(t, app1, 1, "speed", "gps")

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app2, 1, vehicledata.Params{"speed": true})
	env.mobile.waitResponse(t)

	if err := env.manager.UnregisterApplication(app1.ConnectionKey); err != nil {
		t.Fatalf("Can't unregister application: %s", err)
	}

	env.hmi.waitMessage(t, hmiapi.BasicCommunicationOnAppUnregistered)

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoUnsubscribeVehicleData)

	checkParams(t, request, "gps")

	env.respond(t, request, hmiapi.ResultSuccess, nil)

	if subscribers := env.registry.Subscribers("speed"); !reflect.DeepEqual(subscribers, []uint32{app2.ConnectionKey}) {
		t.Errorf("Wrong subscribers: %v", subscribers)
	}

	// Stored data is kept for resumption
	env.storage.check(t, "app1", []string{"gps", "speed"})

	if env.manager.Dispatcher().NumSubscriptions() != 0 {
		t.Errorf("Wrong subscriptions count: %d", env.manager.Dispatcher().NumSubscriptions())
	}
}

func TestResumption(t *testing.T) {
	env := newTestEnv()
	defer env.manager.Close()

	env.storage.subscriptions["app1"] = []string{"gps", "speed"}

	app, err := env.manager.RegisterApplication("app1", "app1")
	if err != nil {
		t.Fatalf("Can't register application: %s", err)
	}

	env.hmi.waitMessage(t, hmiapi.BasicCommunicationOnAppRegistered)

	request := env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData)

	checkParams(t, request, "gps", "speed")

	env.respond(t, request, hmiapi.ResultSuccess, nil)

	if params := env.registry.AppSubscriptions(app.ConnectionKey); !reflect.DeepEqual(
		params, []string{"gps", "speed"}) {
		t.Errorf("Wrong app subscriptions: %v", params)
	}

	env.mobile.checkNoResponses(t)
}

/***********************************************************************************************************************
 * testEnv
 **********************************************************************************************************************/

func newTestEnv() (env *testEnv) {
	env = &testEnv{
		clock:    testclock.NewClock(time.Now()),
		hmi:      &testHMI{messages: make(chan *hmiapi.Message, 100)},
		mobile:   &testMobile{responses: make(chan mobileapi.Response, 100)},
		storage:  &testStorage{subscriptions: make(map[string][]string)},
		registry: subscriptions.New(),
	}

	env.manager = commands.New(commands.Config{DefaultTimeout: defaultTimeout},
		env.clock, env.hmi, env.mobile, apps.New(), nil)

	vehicledata.New(env.manager, env.registry, env.storage)

	return env
}

func (env *testEnv) registerApp(t *testing.T, appID string) (app apps.Application) {
	t.Helper()

	app, err := env.manager.RegisterApplication(appID, appID)
	if err != nil {
		t.Fatalf("Can't register application: %s", err)
	}

	env.hmi.waitMessage(t, hmiapi.BasicCommunicationOnAppRegistered)

	return app
}

func (env *testEnv) sendRequest(
	t *testing.T, functionID mobileapi.FunctionID, app apps.Application, correlationID int32,
	params vehicledata.Params,
) {
	t.Helper()

	rawParams, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("Can't marshal params: %s", err)
	}

	env.manager.ProcessRequest(mobileapi.Request{
		FunctionID:    functionID,
		ConnectionKey: app.ConnectionKey,
		CorrelationID: correlationID,
		Params:        rawParams,
	})
}

func (env *testEnv) subscribe(t *testing.T, app apps.Application, correlationID int32, params ...string) {
	t.Helper()

	request := make(vehicledata.Params)

	for _, param := range params {
		request[param] = true
	}

	env.sendRequest(t, mobileapi.SubscribeVehicleData, app, correlationID, request)
	env.respond(t, env.hmi.waitMessage(t, hmiapi.VehicleInfoSubscribeVehicleData), hmiapi.ResultSuccess, nil)

	if response := env.mobile.waitResponse(t); !response.Success {
		t.Fatalf("Can't subscribe: %v", response)
	}
}

func (env *testEnv) respond(t *testing.T, request *hmiapi.Message, result hmiapi.Result, params interface{}) {
	t.Helper()

	response, err := hmiapi.NewResponse(request.FunctionID, request.CorrelationID, result, "", params)
	if err != nil {
		t.Fatalf("Can't create response: %s", err)
	}

	env.manager.OnMessageReceived(response)
}

func checkParams(t *testing.T, request *hmiapi.Message, expected ...string) {
	t.Helper()

	var params vehicledata.Params

	if err := request.DecodeParams(&params); err != nil {
		t.Fatalf("Can't decode params: %s", err)
	}

	if len(params) != len(expected) {
		t.Errorf("Wrong params: %v", params)
	}

	for _, param := range expected {
		if !params[param] {
			t.Errorf("Param %s not found", param)
		}
	}
}

func checkResults(t *testing.T, response mobileapi.Response, expected map[string]mobileapi.VehicleDataResultCode) {
	t.Helper()

	var params vehicledata.ResponseParams

	if err := json.Unmarshal(response.Params, &params); err != nil {
		t.Fatalf("Can't decode response params: %s", err)
	}

	if len(params) != len(expected) {
		t.Errorf("Wrong response params: %v", params)
	}

	for param, resultCode := range expected {
		if params[param].ResultCode != resultCode {
			t.Errorf("Wrong result code of %s: %s", param, params[param].ResultCode)
		}

		if dataType, _ := vehicledata.DataType(param); params[param].DataType != dataType {
			t.Errorf("Wrong data type of %s: %s", param, params[param].DataType)
		}
	}
}

/***********************************************************************************************************************
 * testHMI
 **********************************************************************************************************************/

func (hmi *testHMI) SendMessageToHMI(message *hmiapi.Message) {
	hmi.messages <- message
}

func (hmi *testHMI) waitMessage(t *testing.T, functionID hmiapi.FunctionID) (message *hmiapi.Message) {
	t.Helper()

	select {
	case message = <-hmi.messages:
		if message.FunctionID != functionID {
			t.Fatalf("Wrong HMI message: expected %s, got %s", functionID, message.FunctionID)
		}

		return message

	case <-time.After(waitTimeout):
		t.Fatalf("Wait HMI message %s timeout", functionID)
	}

	return nil
}

func (hmi *testHMI) checkNoMessages(t *testing.T) {
	t.Helper()

	select {
	case message := <-hmi.messages:
		t.Errorf("Unexpected HMI message: %s", message.FunctionID)

	default:
	}
}

/***********************************************************************************************************************
 * testMobile
 **********************************************************************************************************************/

func (mobile *testMobile) SendResponse(response mobileapi.Response) {
	mobile.responses <- response
}

func (mobile *testMobile) SendNotification(notification mobileapi.Notification) {
}

func (mobile *testMobile) waitResponse(t *testing.T) (response mobileapi.Response) {
	t.Helper()

	select {
	case response = <-mobile.responses:
		return response

	case <-time.After(waitTimeout):
		t.Fatal("Wait response timeout")
	}

	return response
}

func (mobile *testMobile) checkNoResponses(t *testing.T) {
	t.Helper()

	select {
	case response := <-mobile.responses:
		t.Errorf("Unexpected response: %v", response)

	case <-time.After(100 * time.Millisecond):
	}
}

/***********************************************************************************************************************
 * testStorage
 **********************************************************************************************************************/

func (storage *testStorage) SetVehicleDataSubscriptions(appID string, params []string) (err error) {
	storage.Lock()
	defer storage.Unlock()

	storage.subscriptions[appID] = params

	return nil
}

func (storage *testStorage) GetVehicleDataSubscriptions(appID string) (params []string, err error) {
	storage.Lock()
	defer storage.Unlock()

	return storage.subscriptions[appID], nil
}

func (storage *testStorage) check(t *testing.T, appID string, expected []string) {
	t.Helper()

	storage.Lock()
	defer storage.Unlock()

	if params := storage.subscriptions[appID]; len(params) != len(expected) ||
		(len(expected) != 0 && !reflect.DeepEqual(params, expected)) {
		t.Errorf("Wrong stored subscriptions of %s: %v", appID, params)
	}
}
