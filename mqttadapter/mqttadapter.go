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

// Package mqttadapter implements HMI adapter for interfaces served through MQTT broker.
//
// Messages to HMI are published to <prefix>/hmi/<function>/<type>, messages from HMI are consumed from
// <prefix>/sdl/<function>/<type>.
package mqttadapter

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const adapterName = "mqtt"

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	keepAlive         = 60 * time.Second
	disconnectQuiesce = 250
)

const (
	hmiTopic = "hmi"
	sdlTopic = "sdl"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrNotConnected is returned when broker connection is not established.
var ErrNotConnected = errors.New("not connected to broker")

var messageTypes = map[string]hmiapi.MessageType{ //nolint:gochecknoglobals // const table
	hmiapi.MessageRequest.String():       hmiapi.MessageRequest,
	hmiapi.MessageResponse.String():      hmiapi.MessageResponse,
	hmiapi.MessageNotification.String():  hmiapi.MessageNotification,
	hmiapi.MessageErrorResponse.String(): hmiapi.MessageErrorResponse,
}

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Config adapter configuration.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Interfaces  []hmiapi.Interface
}

// Receiver receives messages from HMI.
type Receiver interface {
	OnMessageReceived(message *hmiapi.Message)
}

// Adapter MQTT HMI adapter.
type Adapter struct {
	config   Config
	client   brokerClient
	receiver Receiver
}

type brokerClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

type payload struct {
	CorrelationID uint32          `json:"correlationId"`
	Code          *hmiapi.Result  `json:"code,omitempty"`
	Info          string          `json:"info,omitempty"`
	Params        json.RawMessage `json:"params,omitempty"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates MQTT adapter and connects to broker.
func New(config Config, receiver Receiver) (adapter *Adapter, err error) {
	log.WithFields(log.Fields{"broker": config.Broker, "interfaces": config.Interfaces}).Debug("Create MQTT adapter")

	adapter = &Adapter{config: config, receiver: receiver}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(adapter.onConnect)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %s", err)
	})

	if err = adapter.connect(mqtt.NewClient(opts)); err != nil {
		return nil, err
	}

	return adapter, nil
}

// Close disconnects from broker.
func (adapter *Adapter) Close() {
	log.Debug("Close MQTT adapter")

	adapter.client.Disconnect(disconnectQuiesce)
}

// Name returns adapter name.
func (adapter *Adapter) Name() string {
	return adapterName
}

// Interfaces returns served interfaces.
func (adapter *Adapter) Interfaces() []hmiapi.Interface {
	return adapter.config.Interfaces
}

// SendMessage publishes message to HMI topic.
func (adapter *Adapter) SendMessage(message *hmiapi.Message) (err error) {
	if !adapter.client.IsConnectionOpen() {
		return aoserrors.Wrap(ErrNotConnected)
	}

	data := payload{CorrelationID: message.CorrelationID, Info: message.Info, Params: message.Params}

	if message.IsResponse() {
		code := message.Result
		data.Code = &code
	}

	payloadJSON, err := json.Marshal(data)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	topic := adapter.topic(hmiTopic, string(message.FunctionID), message.Type.String())

	log.WithField("topic", topic).Debug("Publish MQTT message")

	token := adapter.client.Publish(topic, adapter.config.QoS, false, payloadJSON)

	if !token.WaitTimeout(publishTimeout) {
		return aoserrors.Errorf("publish timeout: %s", topic)
	}

	return aoserrors.Wrap(token.Error())
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (adapter *Adapter) connect(client brokerClient) (err error) {
	adapter.client = client

	token := client.Connect()

	if !token.WaitTimeout(connectTimeout) {
		return aoserrors.New("connect timeout")
	}

	return aoserrors.Wrap(token.Error())
}

func (adapter *Adapter) onConnect(client mqtt.Client) {
	log.WithField("broker", adapter.config.Broker).Info("Connected to MQTT broker")

	if err := adapter.subscribe(); err != nil {
		log.Errorf("Can't subscribe to HMI messages: %s", err)
	}
}

func (adapter *Adapter) subscribe() (err error) {
	topic := adapter.topic(sdlTopic, "+", "+")

	token := adapter.client.Subscribe(topic, adapter.config.QoS, adapter.onMessage)

	if !token.WaitTimeout(connectTimeout) {
		return aoserrors.Errorf("subscribe timeout: %s", topic)
	}

	return aoserrors.Wrap(token.Error())
}

func (adapter *Adapter) onMessage(client mqtt.Client, mqttMessage mqtt.Message) {
	message, err := adapter.parseMessage(mqttMessage.Topic(), mqttMessage.Payload())
	if err != nil {
		log.WithField("topic", mqttMessage.Topic()).Errorf("Invalid MQTT message: %s", err)

		return
	}

	adapter.receiver.OnMessageReceived(message)
}

func (adapter *Adapter) parseMessage(topic string, data []byte) (message *hmiapi.Message, err error) {
	prefix := adapter.topic(sdlTopic) + "/"

	if !strings.HasPrefix(topic, prefix) {
		return nil, aoserrors.New("unexpected topic")
	}

	fields := strings.Split(strings.TrimPrefix(topic, prefix), "/")
	if len(fields) != 2 { //nolint:gomnd // function and type
		return nil, aoserrors.New("wrong topic format")
	}

	messageType, ok := messageTypes[fields[1]]
	if !ok {
		return nil, aoserrors.Errorf("unknown message type: %s", fields[1])
	}

	var received payload

	if err = json.Unmarshal(data, &received); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	message = &hmiapi.Message{
		Type:          messageType,
		FunctionID:    hmiapi.FunctionID(fields[0]),
		CorrelationID: received.CorrelationID,
		Params:        received.Params,
		Result:        hmiapi.ResultInvalidEnum,
		Info:          received.Info,
	}

	if message.IsResponse() {
		if received.Code == nil {
			return nil, aoserrors.New("response without code")
		}

		message.Result = *received.Code
	}

	return message, nil
}

func (adapter *Adapter) topic(elements ...string) string {
	if adapter.config.TopicPrefix == "" {
		return strings.Join(elements, "/")
	}

	return adapter.config.TopicPrefix + "/" + strings.Join(elements, "/")
}
