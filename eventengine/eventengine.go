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

// Package eventengine dispatches HMI messages to subscribed handlers.
package eventengine

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// SubscriberID unique subscriber handle.
type SubscriberID uuid.UUID

// EventHandler event handler. Handlers are called on the inbound worker and must not block.
type EventHandler func(message *hmiapi.Message)

// Dispatcher event dispatcher.
type Dispatcher struct {
	sync.Mutex
	subscriptions map[eventKey][]subscription
}

type eventKey struct {
	functionID    hmiapi.FunctionID
	correlationID uint32
	correlated    bool
}

type subscription struct {
	subscriber SubscriberID
	handler    EventHandler
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates event dispatcher.
func New() (dispatcher *Dispatcher) {
	return &Dispatcher{subscriptions: make(map[eventKey][]subscription)}
}

// NewSubscriber returns new unique subscriber handle.
func NewSubscriber() (subscriber SubscriberID) {
	return SubscriberID(uuid.New())
}

func (subscriber SubscriberID) String() string {
	return uuid.UUID(subscriber).String()
}

// Subscribe subscribes handler to all events with function ID.
func (dispatcher *Dispatcher) Subscribe(subscriber SubscriberID, functionID hmiapi.FunctionID, handler EventHandler) {
	dispatcher.subscribe(subscriber, eventKey{functionID: functionID}, handler)
}

// SubscribeCorrelated subscribes handler to events with function ID and correlation ID.
func (dispatcher *Dispatcher) SubscribeCorrelated(
	subscriber SubscriberID, functionID hmiapi.FunctionID, correlationID uint32, handler EventHandler,
) {
	dispatcher.subscribe(subscriber,
		eventKey{functionID: functionID, correlationID: correlationID, correlated: true}, handler)
}

// Unsubscribe removes subscriber handlers for function ID. It is safe to call it several times.
func (dispatcher *Dispatcher) Unsubscribe(subscriber SubscriberID, functionID hmiapi.FunctionID) {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	for key := range dispatcher.subscriptions {
		if key.functionID == functionID {
			dispatcher.removeSubscriber(key, subscriber)
		}
	}
}

// UnsubscribeAll removes all subscriber handlers. It is safe to call it several times.
func (dispatcher *Dispatcher) UnsubscribeAll(subscriber SubscriberID) {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	for key := range dispatcher.subscriptions {
		dispatcher.removeSubscriber(key, subscriber)
	}
}

// Raise synchronously calls handlers subscribed to the message in subscription order. Correlated handlers are called
// first. Handlers unsubscribed by an earlier handler of the same raise are skipped. Returns number of called handlers.
func (dispatcher *Dispatcher) Raise(message *hmiapi.Message) (numHandlers int) {
	keys := []eventKey{{functionID: message.FunctionID}}

	if message.IsResponse() {
		keys = append([]eventKey{{
			functionID: message.FunctionID, correlationID: message.CorrelationID, correlated: true,
		}}, keys...)
	}

	for _, key := range keys {
		for _, item := range dispatcher.getSubscriptions(key) {
			if !dispatcher.isSubscribed(key, item.subscriber) {
				continue
			}

			item.handler(message)

			numHandlers++
		}
	}

	if numHandlers == 0 {
		log.WithFields(log.Fields{
			"function": message.FunctionID, "correlationID": message.CorrelationID,
		}).Debug("No event subscribers")
	}

	return numHandlers
}

// NumSubscriptions returns number of active subscriptions.
func (dispatcher *Dispatcher) NumSubscriptions() (count int) {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	for _, items := range dispatcher.subscriptions {
		count += len(items)
	}

	return count
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (dispatcher *Dispatcher) subscribe(subscriber SubscriberID, key eventKey, handler EventHandler) {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	log.WithFields(log.Fields{
		"subscriber": subscriber, "function": key.functionID, "correlationID": key.correlationID,
	}).Debug("Subscribe on event")

	dispatcher.removeSubscriber(key, subscriber)

	dispatcher.subscriptions[key] = append(dispatcher.subscriptions[key],
		subscription{subscriber: subscriber, handler: handler})
}

func (dispatcher *Dispatcher) removeSubscriber(key eventKey, subscriber SubscriberID) {
	items := dispatcher.subscriptions[key]

	for i, item := range items {
		if item.subscriber == subscriber {
			items = append(items[:i:i], items[i+1:]...)

			break
		}
	}

	if len(items) == 0 {
		delete(dispatcher.subscriptions, key)

		return
	}

	dispatcher.subscriptions[key] = items
}

func (dispatcher *Dispatcher) getSubscriptions(key eventKey) (items []subscription) {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	return append(items, dispatcher.subscriptions[key]...)
}

func (dispatcher *Dispatcher) isSubscribed(key eventKey, subscriber SubscriberID) bool {
	dispatcher.Lock()
	defer dispatcher.Unlock()

	for _, item := range dispatcher.subscriptions[key] {
		if item.subscriber == subscriber {
			return true
		}
	}

	return false
}
