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

// Package messagequeue provides blocking FIFO queue used by HMI transport workers.
package messagequeue

import (
	"container/list"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrClosed is returned when queue is shut down.
var ErrClosed = errors.New("message queue is closed")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Queue thread safe unbounded FIFO queue. Pop blocks while queue is empty.
type Queue[T any] struct {
	sync.Mutex
	name     string
	cond     *sync.Cond
	items    *list.List
	shutdown bool
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates new message queue.
func New[T any](name string) (queue *Queue[T]) {
	queue = &Queue[T]{name: name, items: list.New()}
	queue.cond = sync.NewCond(&queue.Mutex)

	return queue
}

// Push adds message to the tail of the queue. It never blocks.
func (queue *Queue[T]) Push(message T) (err error) {
	queue.Lock()
	defer queue.Unlock()

	if queue.shutdown {
		return ErrClosed
	}

	queue.items.PushBack(message)
	queue.cond.Signal()

	return nil
}

// Pop removes and returns message from the head of the queue. It blocks until message is available or queue is
// shut down. ErrClosed is returned after shutdown.
func (queue *Queue[T]) Pop() (message T, err error) {
	queue.Lock()
	defer queue.Unlock()

	for queue.items.Len() == 0 && !queue.shutdown {
		queue.cond.Wait()
	}

	if queue.shutdown {
		return message, ErrClosed
	}

	element := queue.items.Front()
	queue.items.Remove(element)

	return element.Value.(T), nil //nolint:forcetypeassert // only T is pushed
}

// Len returns number of queued messages.
func (queue *Queue[T]) Len() (length int) {
	queue.Lock()
	defer queue.Unlock()

	return queue.items.Len()
}

// IsShutdown returns true if queue is shut down.
func (queue *Queue[T]) IsShutdown() (shutdown bool) {
	queue.Lock()
	defer queue.Unlock()

	return queue.shutdown
}

// Shutdown closes the queue and wakes up all blocked Pop callers.
func (queue *Queue[T]) Shutdown() {
	queue.Lock()
	defer queue.Unlock()

	if queue.shutdown {
		return
	}

	queue.shutdown = true

	if queue.items.Len() != 0 {
		log.WithFields(log.Fields{"queue": queue.name, "count": queue.items.Len()}).Warn("Discard queued messages")
	}

	queue.items.Init()
	queue.cond.Broadcast()
}
