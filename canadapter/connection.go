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

package canadapter

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Connection states.
const (
	StateNone ConnectionState = iota - 1
	StateOpened
	StateClosed
	StateInvalid
)

const readBufferSize = 1024

const frameDelimiter = '\n'

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// ConnectionState vehicle bus connection state.
type ConnectionState int

// Connection vehicle bus connection.
type Connection interface {
	OpenConnection() ConnectionState
	CloseConnection() ConnectionState
	// Flash writes queued frames
	Flash() ConnectionState
	// GetData reads next frame, StateOpened with nil Data means nothing was received
	GetData() ConnectionState
	// Send queues frame for writing
	Send(frame []byte)
	// Data returns frame read by last GetData
	Data() []byte
}

// SerialConnection connection over serial port with newline delimited frames.
type SerialConnection struct {
	sync.Mutex
	config   serial.Config
	openPort func(config *serial.Config) (io.ReadWriteCloser, error)
	port     io.ReadWriteCloser
	state    ConnectionState
	outgoing [][]byte
	incoming []byte
	data     []byte
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

func (state ConnectionState) String() string {
	switch state {
	case StateNone:
		return "none"

	case StateOpened:
		return "opened"

	case StateClosed:
		return "closed"

	default:
		return "invalid"
	}
}

// NewSerialConnection creates serial port connection.
func NewSerialConnection(port string, baud int, readTimeout time.Duration) (connection *SerialConnection) {
	return &SerialConnection{
		config: serial.Config{Name: port, Baud: baud, ReadTimeout: readTimeout},
		openPort: func(config *serial.Config) (io.ReadWriteCloser, error) {
			return serial.OpenPort(config)
		},
		state: StateNone,
	}
}

// OpenConnection opens serial port.
func (connection *SerialConnection) OpenConnection() ConnectionState {
	connection.Lock()
	defer connection.Unlock()

	if connection.state == StateOpened {
		return connection.state
	}

	port, err := connection.openPort(&connection.config)
	if err != nil {
		log.WithField("port", connection.config.Name).Errorf("Can't open serial port: %s", err)

		connection.state = StateInvalid

		return connection.state
	}

	log.WithFields(log.Fields{
		"port": connection.config.Name, "baud": connection.config.Baud,
	}).Info("Serial port opened")

	connection.port = port
	connection.incoming = nil
	connection.state = StateOpened

	return connection.state
}

// CloseConnection closes serial port.
func (connection *SerialConnection) CloseConnection() ConnectionState {
	connection.Lock()
	defer connection.Unlock()

	if connection.port != nil {
		if err := connection.port.Close(); err != nil {
			log.WithField("port", connection.config.Name).Errorf("Can't close serial port: %s", err)
		}

		connection.port = nil
	}

	connection.outgoing = nil
	connection.state = StateClosed

	return connection.state
}

// Send queues frame for writing.
func (connection *SerialConnection) Send(frame []byte) {
	connection.Lock()
	defer connection.Unlock()

	connection.outgoing = append(connection.outgoing, frame)
}

// Flash writes queued frames.
func (connection *SerialConnection) Flash() ConnectionState {
	connection.Lock()
	defer connection.Unlock()

	if connection.state != StateOpened {
		return connection.state
	}

	for len(connection.outgoing) != 0 {
		frame := make([]byte, 0, len(connection.outgoing[0])+1)
		frame = append(append(frame, connection.outgoing[0]...), frameDelimiter)

		if _, err := connection.port.Write(frame); err != nil {
			log.WithField("port", connection.config.Name).Errorf("Can't write frame: %s", err)

			connection.state = StateInvalid

			return connection.state
		}

		connection.outgoing = connection.outgoing[1:]
	}

	return connection.state
}

// GetData reads next frame.
func (connection *SerialConnection) GetData() ConnectionState {
	connection.Lock()

	connection.data = nil

	if connection.state != StateOpened {
		defer connection.Unlock()

		return connection.state
	}

	if connection.takeFrame() {
		defer connection.Unlock()

		return connection.state
	}

	port := connection.port

	connection.Unlock()

	buffer := make([]byte, readBufferSize)

	n, err := port.Read(buffer)

	connection.Lock()
	defer connection.Unlock()

	if connection.port != port {
		return connection.state
	}

	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
		log.WithField("port", connection.config.Name).Errorf("Can't read frame: %s", err)

		connection.state = StateInvalid

		return connection.state
	}

	connection.incoming = append(connection.incoming, buffer[:n]...)
	connection.takeFrame()

	return connection.state
}

// Data returns frame read by last GetData.
func (connection *SerialConnection) Data() []byte {
	connection.Lock()
	defer connection.Unlock()

	return connection.data
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (connection *SerialConnection) takeFrame() bool {
	for {
		index := bytes.IndexByte(connection.incoming, frameDelimiter)
		if index < 0 {
			return false
		}

		frame := bytes.TrimSpace(connection.incoming[:index])
		connection.incoming = connection.incoming[index+1:]

		if len(frame) != 0 {
			connection.data = append([]byte(nil), frame...)

			return true
		}
	}
}
