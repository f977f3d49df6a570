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

package wsserver_test

import (
	"bytes"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/wsserver"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const waitTimeout = 5 * time.Second

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type echoProcessor struct {
	client  *wsserver.Client
	closed  chan string
	pushing bool
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

func TestEcho(t *testing.T) {
	closed := make(chan string, 1)

	server, err := wsserver.New("test", "localhost:0", "", "", func(client *wsserver.Client) (
		wsserver.MessageProcessor, error,
	) {
		return &echoProcessor{client: client, closed: closed}, nil
	})
	if err != nil {
		t.Fatalf("Can't create ws server: %s", err)
	}
	defer server.Close()

	connection := dial(t, server.Addr())

	response, err := sendMessage(connection, []byte("hello"))
	if err != nil {
		t.Fatalf("Can't send message: %s", err)
	}

	if !bytes.Equal(response, []byte("hello")) {
		t.Errorf("Wrong response: %s", response)
	}

	if len(server.GetClients()) != 1 {
		t.Errorf("Wrong clients count: %d", len(server.GetClients()))
	}

	connection.Close()

	select {
	case <-closed:

	case <-time.After(waitTimeout):
		t.Fatal("Processor is not closed")
	}
}

func TestPushFromProcessor(t *testing.T) {
	processors := make(chan *echoProcessor, 1)

	server, err := wsserver.New("test", "localhost:0", "", "", func(client *wsserver.Client) (
		wsserver.MessageProcessor, error,
	) {
		processor := &echoProcessor{client: client, closed: make(chan string, 1), pushing: true}

		processors <- processor

		return processor, nil
	})
	if err != nil {
		t.Fatalf("Can't create ws server: %s", err)
	}
	defer server.Close()

	connection := dial(t, server.Addr())
	defer connection.Close()

	var processor *echoProcessor

	select {
	case processor = <-processors:

	case <-time.After(waitTimeout):
		t.Fatal("Processor is not created")
	}

	if err = processor.client.SendMessage(websocket.TextMessage, []byte("push")); err != nil {
		t.Fatalf("Can't push message: %s", err)
	}

	if err = connection.SetReadDeadline(time.Now().Add(waitTimeout)); err != nil {
		t.Fatalf("Can't set read deadline: %s", err)
	}

	_, message, err := connection.ReadMessage()
	if err != nil {
		t.Fatalf("Can't read message: %s", err)
	}

	if string(message) != "push" {
		t.Errorf("Wrong message: %s", message)
	}

	// Processor without response
	if err = connection.WriteMessage(websocket.TextMessage, []byte("silent")); err != nil {
		t.Fatalf("Can't write message: %s", err)
	}

	if err = connection.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		t.Fatalf("Can't set read deadline: %s", err)
	}

	if _, message, err = connection.ReadMessage(); err == nil {
		t.Errorf("Unexpected message: %s", message)
	}
}

func TestProcessorError(t *testing.T) {
	server, err := wsserver.New("test", "localhost:0", "", "", func(client *wsserver.Client) (
		wsserver.MessageProcessor, error,
	) {
		return nil, errors.New("not allowed")
	})
	if err != nil {
		t.Fatalf("Can't create ws server: %s", err)
	}
	defer server.Close()

	connection := dial(t, server.Addr())
	defer connection.Close()

	if err = connection.SetReadDeadline(time.Now().Add(waitTimeout)); err != nil {
		t.Fatalf("Can't set read deadline: %s", err)
	}

	if _, _, err = connection.ReadMessage(); err == nil {
		t.Error("Connection should be closed")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := wsserver.New("test", "wrong address", "", "", nil); err == nil {
		t.Error("Error expected")
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (processor *echoProcessor) ProcessMessage(messageType int, message []byte) (response []byte, err error) {
	if processor.pushing {
		return nil, nil
	}

	return message, nil
}

func (processor *echoProcessor) Close() {
	processor.closed <- processor.client.ID
}

func dial(t *testing.T, addr string) (connection *websocket.Conn) {
	t.Helper()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}

	connection, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("Can't connect to ws server: %s", err)
	}

	return connection
}

func sendMessage(connection *websocket.Conn, message []byte) (response []byte, err error) {
	if err = connection.WriteMessage(websocket.TextMessage, message); err != nil {
		return nil, err
	}

	if err = connection.SetReadDeadline(time.Now().Add(waitTimeout)); err != nil {
		return nil, err
	}

	if _, response, err = connection.ReadMessage(); err != nil {
		return nil, err
	}

	return response, nil
}
