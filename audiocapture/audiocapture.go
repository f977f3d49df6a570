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

// Package audiocapture streams captured audio to mobile applications as OnAudioPassThru notifications.
package audiocapture

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	"github.com/juju/clock"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const defaultChunkInterval = time.Second

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrBusy is returned when audio is captured for another application.
var ErrBusy = errors.New("audio capture is busy")

var (
	samplingRates = map[string]int{ //nolint:gochecknoglobals // const table
		"8KHZ": 8000, "16KHZ": 16000, "22KHZ": 22050, "44KHZ": 44100,
	}
	bitsPerSample = map[string]int{ //nolint:gochecknoglobals // const table
		"8_BIT": 8, "16_BIT": 16,
	}
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// NotificationSender sends notifications to mobile applications.
type NotificationSender interface {
	SendNotification(notification mobileapi.Notification)
}

// Params capture parameters.
type Params struct {
	ConnectionKey uint32
	MaxDuration   time.Duration
	SamplingRate  string
	BitsPerSample string
	AudioType     string
}

// Capturer audio capturer. Audio is read from the source file, empty file name produces silence.
type Capturer struct {
	sync.Mutex
	clock         clock.Clock
	sender        NotificationSender
	fileName      string
	chunkInterval time.Duration
	session       *session
}

type session struct {
	params      Params
	stopChannel chan struct{}
}

type audioPassThruParams struct {
	Data []byte `json:"data"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates audio capturer.
func New(clk clock.Clock, sender NotificationSender, fileName string, chunkInterval time.Duration) (capturer *Capturer) {
	if chunkInterval == 0 {
		chunkInterval = defaultChunkInterval
	}

	return &Capturer{clock: clk, sender: sender, fileName: fileName, chunkInterval: chunkInterval}
}

// Start starts capturing for application.
func (capturer *Capturer) Start(params Params) (err error) {
	capturer.Lock()
	defer capturer.Unlock()

	if capturer.session != nil {
		return aoserrors.Errorf("%w: connection %d", ErrBusy, capturer.session.params.ConnectionKey)
	}

	var source io.ReadCloser

	if capturer.fileName != "" {
		if source, err = os.Open(capturer.fileName); err != nil {
			return aoserrors.Wrap(err)
		}
	}

	log.WithFields(log.Fields{
		"connectionKey": params.ConnectionKey,
		"maxDuration":   params.MaxDuration,
		"samplingRate":  params.SamplingRate,
		"bitsPerSample": params.BitsPerSample,
	}).Debug("Start audio capture")

	capturer.session = &session{params: params, stopChannel: make(chan struct{})}

	go capturer.capture(capturer.session, source)

	return nil
}

// Stop stops capturing for application. Returns true if capture was active.
func (capturer *Capturer) Stop(connectionKey uint32) (stopped bool) {
	capturer.Lock()
	defer capturer.Unlock()

	if capturer.session == nil || capturer.session.params.ConnectionKey != connectionKey {
		return false
	}

	log.WithField("connectionKey", connectionKey).Debug("Stop audio capture")

	close(capturer.session.stopChannel)
	capturer.session = nil

	return true
}

// IsActive returns true if audio is captured.
func (capturer *Capturer) IsActive() bool {
	capturer.Lock()
	defer capturer.Unlock()

	return capturer.session != nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (capturer *Capturer) capture(session *session, source io.ReadCloser) {
	defer capturer.release(session)

	if source != nil {
		defer source.Close()
	}

	chunk := make([]byte, chunkSize(session.params, capturer.chunkInterval))

	var elapsed time.Duration

	for session.params.MaxDuration == 0 || elapsed < session.params.MaxDuration {
		select {
		case <-session.stopChannel:
			return

		case <-capturer.clock.After(capturer.chunkInterval):
		}

		elapsed += capturer.chunkInterval

		data := chunk

		if source != nil {
			n, err := io.ReadFull(source, chunk)
			if n == 0 {
				if !errors.Is(err, io.EOF) {
					log.Errorf("Can't read audio source: %s", err)
				}

				return
			}

			data = chunk[:n]
		}

		capturer.sendChunk(session, data)
	}
}

// release frees capturer when session ends by itself.
func (capturer *Capturer) release(session *session) {
	capturer.Lock()
	defer capturer.Unlock()

	if capturer.session != session {
		return
	}

	log.WithField("connectionKey", session.params.ConnectionKey).Debug("Audio capture finished")

	capturer.session = nil
}

func (capturer *Capturer) sendChunk(session *session, data []byte) {
	params, err := json.Marshal(audioPassThruParams{Data: data})
	if err != nil {
		log.Errorf("Can't marshal audio chunk: %s", err)

		return
	}

	// Stop may happen while chunk was read
	select {
	case <-session.stopChannel:
		return

	default:
	}

	capturer.sender.SendNotification(mobileapi.Notification{
		FunctionID:    mobileapi.OnAudioPassThru,
		ConnectionKey: session.params.ConnectionKey,
		Params:        params,
	})
}

func chunkSize(params Params, interval time.Duration) int {
	rate, ok := samplingRates[params.SamplingRate]
	if !ok {
		rate = samplingRates["16KHZ"]
	}

	bits, ok := bitsPerSample[params.BitsPerSample]
	if !ok {
		bits = bitsPerSample["16_BIT"]
	}

	return int(int64(rate*bits/8) * int64(interval) / int64(time.Second)) //nolint:gomnd // bits in byte
}
