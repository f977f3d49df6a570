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

// Package mobileserver provides websocket endpoint for mobile application sessions.
package mobileserver

import (
	"encoding/json"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/apps"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/wsserver"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const serverName = "mobile"

// Message types.
const (
	RegisterAppType   = "registerApp"
	UnregisterAppType = "unregisterApp"
	RequestType       = "request"
	ResponseType      = "response"
	NotificationType  = "notification"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// AppManager manages applications and processes their requests.
type AppManager interface {
	RegisterApplication(appID, name string) (app apps.Application, err error)
	UnregisterApplication(connectionKey uint32) (err error)
	ProcessRequest(request mobileapi.Request)
}

// MessageHeader mobile session message header.
type MessageHeader struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterAppRequest application registration request.
type RegisterAppRequest struct {
	MessageHeader
	AppID   string `json:"appId"`
	AppName string `json:"appName"`
}

// RegisterAppResponse application registration response.
type RegisterAppResponse struct {
	MessageHeader
	ConnectionKey uint32             `json:"connectionKey,omitempty"`
	HMILevel      mobileapi.HMILevel `json:"hmiLevel,omitempty"`
}

// RequestMessage application request.
type RequestMessage struct {
	MessageHeader
	Request mobileapi.Request `json:"request"`
}

// ResponseMessage response pushed to application.
type ResponseMessage struct {
	MessageHeader
	Response mobileapi.Response `json:"response"`
}

// NotificationMessage notification pushed to application.
type NotificationMessage struct {
	MessageHeader
	Notification mobileapi.Notification `json:"notification"`
}

// Server mobile server.
type Server struct {
	sync.Mutex
	url      string
	cert     string
	key      string
	wsServer *wsserver.Server
	manager  AppManager
	sessions map[uint32]*session
}

type session struct {
	sync.Mutex
	server        *Server
	client        *wsserver.Client
	connectionKey uint32
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates mobile server. Server starts accepting sessions on Start.
func New(url, cert, key string) (server *Server) {
	log.WithField("url", url).Debug("Create mobile server")

	return &Server{url: url, cert: cert, key: key, sessions: make(map[uint32]*session)}
}

// Start starts accepting mobile sessions.
func (server *Server) Start(manager AppManager) (err error) {
	server.manager = manager

	if server.wsServer, err = wsserver.New(serverName, server.url, server.cert, server.key,
		server.newSession); err != nil {
		return err
	}

	return nil
}

// Addr returns server listen address.
func (server *Server) Addr() string {
	return server.wsServer.Addr()
}

// Close closes server and all sessions.
func (server *Server) Close() {
	log.Debug("Close mobile server")

	if server.wsServer != nil {
		server.wsServer.Close()
	}
}

// SendResponse sends response to application session.
func (server *Server) SendResponse(response mobileapi.Response) {
	server.send(response.ConnectionKey, ResponseMessage{
		MessageHeader: MessageHeader{Type: ResponseType}, Response: response,
	})
}

// SendNotification sends notification to application session.
func (server *Server) SendNotification(notification mobileapi.Notification) {
	server.send(notification.ConnectionKey, NotificationMessage{
		MessageHeader: MessageHeader{Type: NotificationType}, Notification: notification,
	})
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (server *Server) newSession(client *wsserver.Client) (processor wsserver.MessageProcessor, err error) {
	return &session{server: server, client: client}, nil
}

func (server *Server) send(connectionKey uint32, message interface{}) {
	server.Lock()
	session, ok := server.sessions[connectionKey]
	server.Unlock()

	if !ok {
		log.WithField("connectionKey", connectionKey).Warn("Session not found, message dropped")

		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Can't marshal message: %s", err)

		return
	}

	if err = session.client.SendMessage(websocket.TextMessage, data); err != nil {
		log.WithField("connectionKey", connectionKey).Errorf("Can't send message: %s", err)
	}
}

func (server *Server) addSession(connectionKey uint32, session *session) {
	server.Lock()
	defer server.Unlock()

	server.sessions[connectionKey] = session
}

func (server *Server) removeSession(connectionKey uint32) {
	server.Lock()
	defer server.Unlock()

	delete(server.sessions, connectionKey)
}

func (session *session) ProcessMessage(messageType int, message []byte) (response []byte, err error) {
	var header MessageHeader

	if messageType != websocket.TextMessage {
		return createResponseError(header, aoserrors.New("incoming message in unsupported format"))
	}

	if err = json.Unmarshal(message, &header); err != nil {
		return createResponseError(header, aoserrors.Wrap(err))
	}

	switch header.Type {
	case RegisterAppType:
		response, err = session.processRegisterApp(message)

	case UnregisterAppType:
		response, err = session.processUnregisterApp(header)

	case RequestType:
		err = session.processRequest(message)

	default:
		err = aoserrors.Errorf("unsupported message type: %s", header.Type)
	}

	if err != nil {
		return createResponseError(header, err)
	}

	return response, nil
}

func (session *session) Close() {
	session.Lock()
	connectionKey := session.connectionKey
	session.connectionKey = 0
	session.Unlock()

	if connectionKey == 0 {
		return
	}

	log.WithField("connectionKey", connectionKey).Info("Session closed, unregister application")

	session.server.removeSession(connectionKey)

	if err := session.server.manager.UnregisterApplication(connectionKey); err != nil {
		log.WithField("connectionKey", connectionKey).Errorf("Can't unregister application: %s", err)
	}
}

func (session *session) processRegisterApp(message []byte) (response []byte, err error) {
	var request RegisterAppRequest

	if err = json.Unmarshal(message, &request); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	session.Lock()
	defer session.Unlock()

	if session.connectionKey != 0 {
		return nil, aoserrors.New("application already registered in this session")
	}

	if request.AppID == "" {
		return nil, aoserrors.New("application ID is empty")
	}

	log.WithFields(log.Fields{"appID": request.AppID, "appName": request.AppName}).Debug("Process register app")

	app, err := session.server.manager.RegisterApplication(request.AppID, request.AppName)
	if err != nil {
		return nil, err
	}

	session.connectionKey = app.ConnectionKey
	session.server.addSession(app.ConnectionKey, session)

	return marshal(RegisterAppResponse{
		MessageHeader: MessageHeader{Type: RegisterAppType, RequestID: request.RequestID},
		ConnectionKey: app.ConnectionKey,
		HMILevel:      app.HMILevel,
	})
}

func (session *session) processUnregisterApp(header MessageHeader) (response []byte, err error) {
	session.Lock()
	connectionKey := session.connectionKey
	session.connectionKey = 0
	session.Unlock()

	if connectionKey == 0 {
		return nil, aoserrors.Wrap(apps.ErrNotRegistered)
	}

	log.WithField("connectionKey", connectionKey).Debug("Process unregister app")

	session.server.removeSession(connectionKey)

	if err = session.server.manager.UnregisterApplication(connectionKey); err != nil {
		return nil, err
	}

	return marshal(MessageHeader{Type: UnregisterAppType, RequestID: header.RequestID})
}

func (session *session) processRequest(message []byte) (err error) {
	var request RequestMessage

	if err = json.Unmarshal(message, &request); err != nil {
		return aoserrors.Wrap(err)
	}

	session.Lock()
	connectionKey := session.connectionKey
	session.Unlock()

	if connectionKey == 0 {
		return aoserrors.Wrap(apps.ErrNotRegistered)
	}

	request.Request.ConnectionKey = connectionKey
	request.Request.Internal = false

	session.server.manager.ProcessRequest(request.Request)

	return nil
}

func marshal(message interface{}) (data []byte, err error) {
	if data, err = json.Marshal(message); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return data, nil
}

func createResponseError(header MessageHeader, responseErr error) (response []byte, err error) {
	header.Error = responseErr.Error()

	return marshal(header)
}
