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

package wsserver

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const writeSocketTimeout = 10 * time.Second

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Client websocket client connection.
type Client struct {
	sync.Mutex
	ID         string
	RemoteAddr string
	connection *websocket.Conn
	processor  MessageProcessor
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// SendMessage sends message to client.
func (client *Client) SendMessage(messageType int, data []byte) (err error) {
	client.Lock()
	defer client.Unlock()

	if messageType == websocket.TextMessage {
		log.WithFields(log.Fields{"message": string(data), "remoteAddr": client.RemoteAddr}).Debug("Send message")
	}

	if err = client.connection.SetWriteDeadline(time.Now().Add(writeSocketTimeout)); err != nil {
		return aoserrors.Wrap(err)
	}

	if err = client.connection.WriteMessage(messageType, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			log.WithField("remoteAddr", client.RemoteAddr).Errorf("Can't write message: %s", err)

			client.connection.Close()
		}

		return aoserrors.Wrap(err)
	}

	return nil
}

// Close closes client connection.
func (client *Client) Close() {
	client.close(true)
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func newClient(connection *websocket.Conn) (client *Client) {
	client = &Client{
		ID:         uuid.New().String(),
		RemoteAddr: connection.RemoteAddr().String(),
		connection: connection,
	}

	log.WithFields(log.Fields{"remoteAddr": client.RemoteAddr, "id": client.ID}).Info("Create new client")

	return client
}

func (client *Client) close(sendCloseMessage bool) {
	log.WithField("remoteAddr", client.RemoteAddr).Info("Close client")

	if sendCloseMessage {
		_ = client.SendMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}

	client.connection.Close()
}

func (client *Client) run() {
	for {
		messageType, message, err := client.connection.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				log.WithField("remoteAddr", client.RemoteAddr).Errorf("Error reading socket: %s", err)
			}

			return
		}

		if messageType == websocket.TextMessage {
			log.WithFields(log.Fields{
				"message": string(message), "remoteAddr": client.RemoteAddr,
			}).Debug("Receive message")
		}

		response, err := client.processor.ProcessMessage(messageType, message)
		if err != nil {
			log.WithField("remoteAddr", client.RemoteAddr).Errorf("Can't process message: %s", err)

			continue
		}

		if response != nil {
			if err := client.SendMessage(messageType, response); err != nil {
				log.WithField("remoteAddr", client.RemoteAddr).Errorf("Can't send message: %s", err)
			}
		}
	}
}
