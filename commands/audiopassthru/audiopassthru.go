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

// Package audiopassthru implements PerformAudioPassThru: optional TTS prompt followed by microphone capture
// streamed to the mobile application.
package audiopassthru

import (
	"errors"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"

	"github.com/aoscloud/aos_hmibroker/audiocapture"
	"github.com/aoscloud/aos_hmibroker/commands"
	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
	"github.com/aoscloud/aos_hmibroker/validation"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	minMaxDuration = 1
	maxMaxDuration = 1000000
)

const (
	speakTypeAudioPassThru = "AUDIO_PASS_THRU"
	displayTextField1      = "audioPassThruDisplayText1"
	displayTextField2      = "audioPassThruDisplayText2"
)

const (
	unsupportedPhonemeInfo = "Unsupported phoneme type sent in a prompt"
	imageNotFoundInfo      = "Reference image(s) not found"
	uiNotSupportedInfo     = "UI is not supported by system"
	invalidSyntaxInfo      = "Incoming request contains whitespace or control sequences"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// TTS results which allow recording to start.
var recordStartResults = map[hmiapi.Result]bool{ //nolint:gochecknoglobals // const table
	hmiapi.ResultSuccess:             true,
	hmiapi.ResultWarnings:            true,
	hmiapi.ResultWrongLanguage:       true,
	hmiapi.ResultRetry:               true,
	hmiapi.ResultSaved:               true,
	hmiapi.ResultUnsupportedResource: true,
}

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// AudioCapturer begins and ends microphone capture for application.
type AudioCapturer interface {
	Start(params audiocapture.Params) error
	Stop(connectionKey uint32) bool
}

// ImageVerifier checks referenced images.
type ImageVerifier interface {
	VerifyImage(appID string, image validation.Image) error
}

// TTSChunk prompt chunk.
type TTSChunk struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Params PerformAudioPassThru request params.
type Params struct {
	InitialPrompt     []TTSChunk        `json:"initialPrompt,omitempty"`
	DisplayText1      *string           `json:"audioPassThruDisplayText1,omitempty"`
	DisplayText2      *string           `json:"audioPassThruDisplayText2,omitempty"`
	SamplingRate      string            `json:"samplingRate"`
	MaxDuration       uint32            `json:"maxDuration"`
	BitsPerSample     string            `json:"bitsPerSample"`
	AudioType         string            `json:"audioType"`
	MuteAudio         *bool             `json:"muteAudio,omitempty"`
	AudioPassThruIcon *validation.Image `json:"audioPassThruIcon,omitempty"`
}

type operation struct {
	capturer       AudioCapturer
	verifier       ImageVerifier
	params         Params
	imageNotFound  bool
	captureStarted bool
	speakStopped   bool
}

type speakRequest struct {
	TTSChunks []TTSChunk `json:"ttsChunks"`
	AppID     uint32     `json:"appID"`
	SpeakType string     `json:"speakType"`
}

type displayText struct {
	FieldName string `json:"fieldName"`
	FieldText string `json:"fieldText"`
}

type uiRequest struct {
	AppID             uint32            `json:"appID"`
	MaxDuration       uint32            `json:"maxDuration"`
	DisplayTexts      []displayText     `json:"audioPassThruDisplayTexts"`
	MuteAudio         bool              `json:"muteAudio"`
	AudioPassThruIcon *validation.Image `json:"audioPassThruIcon,omitempty"`
}

type appNotification struct {
	AppID uint32 `json:"appID"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// NewFactory creates PerformAudioPassThru operation factory.
func NewFactory(capturer AudioCapturer, verifier ImageVerifier) commands.OperationFactory {
	return func(command *commands.Command) (commands.Operation, error) {
		operation := &operation{capturer: capturer, verifier: verifier}

		if err := command.Request().DecodeParams(&operation.params); err != nil {
			return nil, err
		}

		if operation.params.MaxDuration < minMaxDuration || operation.params.MaxDuration > maxMaxDuration {
			return nil, aoserrors.Errorf("max duration %d out of range", operation.params.MaxDuration)
		}

		command.AddTimeout(operation.maxDuration())

		return operation, nil
	}
}

func (operation *operation) Validate(command *commands.Command) (result *commands.Result) {
	if command.Application().HMILevel == mobileapi.HMILevelNone {
		log.WithField("connectionKey", command.ConnectionKey()).Error("Application is not activated")

		return &commands.Result{ResultCode: mobileapi.ResultRejected}
	}

	if !operation.checkSyntax() {
		return &commands.Result{ResultCode: mobileapi.ResultInvalidData, Info: invalidSyntaxInfo}
	}

	operation.processIcon(command)

	if !command.IsInterfaceAvailable(hmiapi.InterfaceUI) {
		return &commands.Result{ResultCode: mobileapi.ResultUnsupportedResource, Info: uiNotSupportedInfo}
	}

	return nil
}

func (operation *operation) Run(command *commands.Command) {
	command.Subscribe(hmiapi.TTSOnResetTimeout)

	if len(operation.params.InitialPrompt) == 0 {
		operation.sendUIRequest(command)
		operation.startRecording(command)

		return
	}

	if command.IsInterfaceAvailable(hmiapi.InterfaceTTS) {
		if _, err := command.SendHMIRequest(hmiapi.TTSSpeak, speakRequest{
			TTSChunks: operation.params.InitialPrompt,
			AppID:     command.ConnectionKey(),
			SpeakType: speakTypeAudioPassThru,
		}, true); err != nil {
			log.Errorf("Can't send speak request: %s", err)
		}
	} else {
		command.SetResponseInfo(hmiapi.InterfaceTTS, hmiapi.ResultUnsupportedResource, "")
	}

	operation.sendUIRequest(command)

	if !command.IsAwaiting(hmiapi.InterfaceTTS) {
		operation.startRecording(command)
	}
}

func (operation *operation) OnEvent(command *commands.Command, message *hmiapi.Message) {
	switch message.FunctionID {
	case hmiapi.UIPerformAudioPassThru:
		operation.onUIResponse(command)

	case hmiapi.TTSSpeak:
		operation.onSpeakResponse(command)

	case hmiapi.TTSOnResetTimeout:
		var params appNotification

		if err := message.DecodeParams(&params); err != nil {
			log.Errorf("Invalid reset timeout notification: %s", err)

			return
		}

		if params.AppID != 0 && params.AppID != command.ConnectionKey() {
			return
		}

		command.ResetTimeout(command.DefaultTimeout())

	default:
		log.WithField("function", message.FunctionID).Warn("Unexpected event")
	}
}

func (operation *operation) PrepareResponse(command *commands.Command) (result commands.Result) {
	ui := command.ResponseInfo(hmiapi.InterfaceUI)
	tts := command.ResponseInfo(hmiapi.InterfaceTTS)

	result = aggregate(ui, tts)

	if operation.imageNotFound {
		result.Info = commands.MergeInfos(imageNotFoundInfo, result.Info)
	}

	return result
}

func (operation *operation) Finalize(command *commands.Command, reason commands.CompletionReason) {
	operation.stopCapture(command)
	operation.stopSpeaking(command)
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (operation *operation) maxDuration() time.Duration {
	return time.Duration(operation.params.MaxDuration) * time.Millisecond
}

func (operation *operation) checkSyntax() bool {
	for _, chunk := range operation.params.InitialPrompt {
		if !validation.CheckSyntax(chunk.Text, true) {
			log.Error("Invalid initial prompt syntax")

			return false
		}
	}

	for _, text := range []*string{operation.params.DisplayText1, operation.params.DisplayText2} {
		if text != nil && !validation.CheckSyntax(*text, false) {
			log.Error("Invalid display text syntax")

			return false
		}
	}

	return true
}

func (operation *operation) processIcon(command *commands.Command) {
	if operation.params.AudioPassThruIcon == nil {
		return
	}

	err := operation.verifier.VerifyImage(command.Application().AppID, *operation.params.AudioPassThruIcon)

	switch {
	case err == nil:

	case errors.Is(err, validation.ErrImageNotFound):
		operation.imageNotFound = true

	default:
		log.Warnf("Icon dropped: %s", err)

		operation.params.AudioPassThruIcon = nil
	}
}

func (operation *operation) sendUIRequest(command *commands.Command) {
	request := uiRequest{
		AppID:             command.ConnectionKey(),
		MaxDuration:       operation.params.MaxDuration,
		MuteAudio:         true,
		AudioPassThruIcon: operation.params.AudioPassThruIcon,
		DisplayTexts:      []displayText{},
	}

	if operation.params.MuteAudio != nil {
		request.MuteAudio = *operation.params.MuteAudio
	}

	if operation.params.DisplayText1 != nil {
		request.DisplayTexts = append(request.DisplayTexts,
			displayText{FieldName: displayTextField1, FieldText: *operation.params.DisplayText1})
	}

	if operation.params.DisplayText2 != nil {
		request.DisplayTexts = append(request.DisplayTexts,
			displayText{FieldName: displayTextField2, FieldText: *operation.params.DisplayText2})
	}

	if _, err := command.SendHMIRequest(hmiapi.UIPerformAudioPassThru, request, true); err != nil {
		log.Errorf("Can't send perform audio pass thru request: %s", err)
	}
}

func (operation *operation) onUIResponse(command *commands.Command) {
	ui := command.ResponseInfo(hmiapi.InterfaceUI)

	if ui.ResultCode == hmiapi.ResultRejected {
		command.Complete(commands.Result{ResultCode: mobileapi.ResultRejected, Info: ui.Info})

		return
	}

	operation.stopCapture(command)
	operation.stopSpeaking(command)
}

func (operation *operation) onSpeakResponse(command *commands.Command) {
	tts := command.ResponseInfo(hmiapi.InterfaceTTS)

	if !recordStartResults[tts.ResultCode] || !command.IsAwaiting(hmiapi.InterfaceUI) {
		return
	}

	operation.startRecording(command)

	command.ResetTimeout(command.DefaultTimeout())
}

func (operation *operation) startRecording(command *commands.Command) {
	if err := command.SendHMINotification(
		hmiapi.UIOnRecordStart, appNotification{AppID: command.ConnectionKey()}); err != nil {
		log.Errorf("Can't send record start notification: %s", err)
	}

	if err := operation.capturer.Start(audiocapture.Params{
		ConnectionKey: command.ConnectionKey(),
		MaxDuration:   operation.maxDuration(),
		SamplingRate:  operation.params.SamplingRate,
		BitsPerSample: operation.params.BitsPerSample,
		AudioType:     operation.params.AudioType,
	}); err != nil {
		log.WithField("connectionKey", command.ConnectionKey()).Errorf("Can't start audio capture: %s", err)

		return
	}

	operation.captureStarted = true
}

func (operation *operation) stopCapture(command *commands.Command) {
	if !operation.captureStarted {
		return
	}

	operation.captureStarted = false

	operation.capturer.Stop(command.ConnectionKey())
}

func (operation *operation) stopSpeaking(command *commands.Command) {
	if operation.speakStopped || !command.IsAwaiting(hmiapi.InterfaceTTS) {
		return
	}

	operation.speakStopped = true

	if _, err := command.SendHMIRequest(hmiapi.TTSStopSpeaking, nil, false); err != nil {
		log.Errorf("Can't send stop speaking request: %s", err)
	}
}

func aggregate(ui, tts commands.ResponseInfo) (result commands.Result) {
	result.Info = commands.MergeResponseInfos(ui, tts)

	switch {
	case commands.IsAnyAborted(ui, tts):
		result.ResultCode = mobileapi.ResultAborted

	case ui.IsOK && tts.IsUnsupportedResource && tts.IsAvailable():
		result.Success = true
		result.ResultCode = mobileapi.ResultWarnings
		result.Info = commands.MergeInfos(ui.Info, unsupportedPhonemeInfo)

	case commands.IsResultCodeUnsupported(ui, tts):
		result.Success = commands.PrepareResultForMobileResponse(ui, tts)
		result.ResultCode = mobileapi.ResultUnsupportedResource

	case ui.ResultCode == hmiapi.ResultSuccess && !tts.IsInvalidEnum && tts.ResultCode != hmiapi.ResultSuccess:
		result.Success = true
		result.ResultCode = mobileapi.ResultWarnings

	case ui.IsInvalidEnum:
		result.Success = tts.IsOK
		result.ResultCode = mobileapi.HMIToMobileResult(tts.ResultCode)

	default:
		result.Success = ui.IsOK
		result.ResultCode = mobileapi.HMIToMobileResult(ui.ResultCode)
	}

	return result
}
