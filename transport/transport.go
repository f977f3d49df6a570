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

// Package transport provides HMI message handler: outbound and inbound queues, their workers and protocol adapters.
package transport

import (
	"errors"
	"sync"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/messagequeue"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Message directions.
const (
	DirectionToHMI   = "to_hmi"
	DirectionFromHMI = "from_hmi"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrNoAdapter is reported when no adapter serves message interface.
var ErrNoAdapter = errors.New("no adapter for interface")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Adapter HMI protocol adapter.
type Adapter interface {
	// Name returns adapter name
	Name() string
	// Interfaces returns list of served interfaces, hmiapi.InterfaceAny serves all not otherwise served interfaces
	Interfaces() []hmiapi.Interface
	// SendMessage sends message to HMI
	SendMessage(message *hmiapi.Message) (err error)
}

// Observer receives messages from HMI. Observer is called from single inbound worker.
type Observer interface {
	OnMessageReceived(message *hmiapi.Message)
	OnErrorSending(message *hmiapi.Message, err error)
}

// MetricsCollector transport metrics.
type MetricsCollector interface {
	MessageProcessed(direction string, iface hmiapi.Interface)
	SendFailed(iface hmiapi.Interface)
	MessageDropped()
}

// Handler HMI message handler.
type Handler struct {
	sync.RWMutex
	adapters  map[hmiapi.Interface]Adapter
	observer  Observer
	metrics   MetricsCollector
	toHMI     *messagequeue.Queue[*hmiapi.Message]
	fromHMI   *messagequeue.Queue[inboundMessage]
	waitGroup sync.WaitGroup
}

type inboundMessage struct {
	message *hmiapi.Message
	err     error
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates HMI message handler and starts its workers. Metrics collector is optional.
func New(metrics MetricsCollector) (handler *Handler) {
	log.Debug("Create HMI message handler")

	handler = &Handler{
		adapters: make(map[hmiapi.Interface]Adapter),
		metrics:  metrics,
		toHMI:    messagequeue.New[*hmiapi.Message]("to HMI"),
		fromHMI:  messagequeue.New[inboundMessage]("from HMI"),
	}

	handler.waitGroup.Add(2) //nolint:gomnd // two workers

	go handler.handleToHMI()
	go handler.handleFromHMI()

	return handler
}

// Close stops workers. Queued messages are discarded.
func (handler *Handler) Close() {
	log.Debug("Close HMI message handler")

	handler.toHMI.Shutdown()
	handler.fromHMI.Shutdown()

	handler.waitGroup.Wait()
}

// SendMessageToHMI enqueues message for sending to HMI.
func (handler *Handler) SendMessageToHMI(message *hmiapi.Message) {
	log.WithFields(messageFields(message)).Debug("Send message to HMI")

	if err := handler.toHMI.Push(message); err != nil {
		log.WithFields(messageFields(message)).Errorf("Can't send message to HMI: %s", err)
	}
}

// OnMessageReceived enqueues message received by adapter. It is called on adapter own goroutine.
func (handler *Handler) OnMessageReceived(message *hmiapi.Message) {
	log.WithFields(messageFields(message)).Debug("Message received from HMI")

	if err := handler.fromHMI.Push(inboundMessage{message: message}); err != nil {
		log.WithFields(messageFields(message)).Errorf("Can't process received message: %s", err)
	}
}

// OnErrorSending reports message sending failure to observer through inbound worker.
func (handler *Handler) OnErrorSending(message *hmiapi.Message, sendErr error) {
	log.WithFields(messageFields(message)).Errorf("Error sending message: %s", sendErr)

	if handler.metrics != nil {
		handler.metrics.SendFailed(message.Interface())
	}

	if err := handler.fromHMI.Push(inboundMessage{message: message, err: sendErr}); err != nil {
		log.WithFields(messageFields(message)).Errorf("Can't report sending error: %s", err)
	}
}

// SetMessageObserver sets observer. It replaces previously set observer, nil removes it.
func (handler *Handler) SetMessageObserver(observer Observer) {
	handler.Lock()
	defer handler.Unlock()

	handler.observer = observer
}

// AddAdapter adds adapter for all its interfaces.
func (handler *Handler) AddAdapter(adapter Adapter) {
	handler.Lock()
	defer handler.Unlock()

	for _, iface := range adapter.Interfaces() {
		log.WithFields(log.Fields{"adapter": adapter.Name(), "interface": iface}).Debug("Add adapter")

		if prev, ok := handler.adapters[iface]; ok && prev != adapter {
			log.WithFields(log.Fields{
				"adapter": prev.Name(), "interface": iface,
			}).Warn("Interface adapter replaced")
		}

		handler.adapters[iface] = adapter
	}
}

// RemoveAdapter removes adapter. Messages already enqueued for this adapter are reported as sending errors.
func (handler *Handler) RemoveAdapter(adapter Adapter) {
	handler.Lock()
	defer handler.Unlock()

	for iface, registered := range handler.adapters {
		if registered == adapter {
			log.WithFields(log.Fields{"adapter": adapter.Name(), "interface": iface}).Debug("Remove adapter")

			delete(handler.adapters, iface)
		}
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (handler *Handler) getAdapter(iface hmiapi.Interface) (adapter Adapter, err error) {
	handler.RLock()
	defer handler.RUnlock()

	if adapter, ok := handler.adapters[iface]; ok {
		return adapter, nil
	}

	if adapter, ok := handler.adapters[hmiapi.InterfaceAny]; ok {
		return adapter, nil
	}

	return nil, aoserrors.Errorf("%w: %s", ErrNoAdapter, iface)
}

func (handler *Handler) getObserver() (observer Observer) {
	handler.RLock()
	defer handler.RUnlock()

	return handler.observer
}

func (handler *Handler) handleToHMI() {
	defer handler.waitGroup.Done()

	for {
		message, err := handler.toHMI.Pop()
		if err != nil {
			log.Debug("To HMI worker stopped")

			return
		}

		adapter, err := handler.getAdapter(message.Interface())
		if err == nil {
			err = adapter.SendMessage(message)
		}

		if err != nil {
			handler.OnErrorSending(message, err)

			continue
		}

		if handler.metrics != nil {
			handler.metrics.MessageProcessed(DirectionToHMI, message.Interface())
		}
	}
}

func (handler *Handler) handleFromHMI() {
	defer handler.waitGroup.Done()

	for {
		inbound, err := handler.fromHMI.Pop()
		if err != nil {
			log.Debug("From HMI worker stopped")

			return
		}

		observer := handler.getObserver()
		if observer == nil {
			log.WithFields(messageFields(inbound.message)).Warn("No message observer, message dropped")

			if handler.metrics != nil {
				handler.metrics.MessageDropped()
			}

			continue
		}

		if inbound.err != nil {
			observer.OnErrorSending(inbound.message, inbound.err)

			continue
		}

		if handler.metrics != nil {
			handler.metrics.MessageProcessed(DirectionFromHMI, inbound.message.Interface())
		}

		observer.OnMessageReceived(inbound.message)
	}
}

func messageFields(message *hmiapi.Message) (fields log.Fields) {
	return log.Fields{
		"function":      message.FunctionID,
		"type":          message.Type,
		"correlationID": message.CorrelationID,
	}
}
