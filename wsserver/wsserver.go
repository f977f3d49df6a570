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

// Package wsserver provides websocket server with per connection message processors.
package wsserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// MessageProcessor processes messages of one connection.
type MessageProcessor interface {
	// ProcessMessage processes incoming message, not nil response is sent back
	ProcessMessage(messageType int, message []byte) (response []byte, err error)
	// Close is called when connection is closed
	Close()
}

// NewMessageProcessor creates message processor for new client.
type NewMessageProcessor func(client *Client) (processor MessageProcessor, err error)

// Server websocket server.
type Server struct {
	sync.Mutex
	name         string
	httpServer   *http.Server
	listener     net.Listener
	upgrader     websocket.Upgrader
	clients      map[string]*Client
	newProcessor NewMessageProcessor
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates websocket server. TLS is used if cert and key are set.
func New(name, url, cert, key string, newProcessor NewMessageProcessor) (server *Server, err error) {
	server = &Server{
		name: name,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:      make(map[string]*Client),
		newProcessor: newProcessor,
	}

	log.WithField("server", server.name).Debug("Create ws server")

	if server.listener, err = net.Listen("tcp", url); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/", server.handleConnection)

	server.httpServer = &http.Server{Handler: serveMux} //nolint:gosec // websocket connections are long living

	go func() {
		log.WithFields(log.Fields{
			"server": server.name, "address": server.listener.Addr(), "crt": cert, "key": key,
		}).Debug("Listen for clients")

		var serveErr error

		if cert != "" && key != "" {
			serveErr = server.httpServer.ServeTLS(server.listener, cert, key)
		} else {
			serveErr = server.httpServer.Serve(server.listener)
		}

		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.WithField("server", server.name).Errorf("Server listening error: %s", serveErr)
		}
	}()

	return server, nil
}

// Addr returns server listen address.
func (server *Server) Addr() string {
	return server.listener.Addr().String()
}

// GetClients returns connected clients.
func (server *Server) GetClients() (clients []*Client) {
	server.Lock()
	defer server.Unlock()

	clients = make([]*Client, 0, len(server.clients))

	for _, client := range server.clients {
		clients = append(clients, client)
	}

	return clients
}

// Close closes websocket server and all connections.
func (server *Server) Close() {
	log.WithField("server", server.name).Debug("Close ws server")

	for _, client := range server.GetClients() {
		client.close(true)
	}

	if err := server.httpServer.Shutdown(context.Background()); err != nil {
		log.WithField("server", server.name).Errorf("Can't shutdown server: %s", err)
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (server *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	log.WithFields(log.Fields{"remoteAddr": r.RemoteAddr, "server": server.name}).Debug("New connection request")

	if !websocket.IsWebSocketUpgrade(r) {
		log.WithField("server", server.name).Error("New connection is not websocket")
		http.Error(w, "websocket connection expected", http.StatusBadRequest)

		return
	}

	connection, err := server.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("server", server.name).Errorf("Can't make websocket connection: %s", err)

		return
	}

	client := newClient(connection)

	if client.processor, err = server.newProcessor(client); err != nil {
		log.WithField("server", server.name).Errorf("Can't create message processor: %s", err)
		connection.Close()

		return
	}

	server.Lock()
	server.clients[client.ID] = client
	server.Unlock()

	client.run()

	server.Lock()
	delete(server.clients, client.ID)
	server.Unlock()

	client.close(false)
	client.processor.Close()
}
