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

// Package metrics collects broker metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aoscloud/aos_hmibroker/hmiapi"
	"github.com/aoscloud/aos_hmibroker/mobileapi"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const namespace = "hmibroker"

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Collector broker metrics collector.
type Collector struct {
	registry        *prometheus.Registry
	messages        *prometheus.CounterVec
	sendFailures    *prometheus.CounterVec
	droppedMessages prometheus.Counter
	commands        *prometheus.CounterVec
	timeouts        *prometheus.CounterVec
	pendingCommands prometheus.Gauge
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates metrics collector with own registry.
func New() (collector *Collector) {
	collector = &Collector{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hmi_messages_total",
			Help:      "The number of messages passed through HMI transport.",
		}, []string{"direction", "interface"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hmi_send_failures_total",
			Help:      "The number of messages which can't be delivered to HMI.",
		}, []string{"interface"}),
		droppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hmi_dropped_messages_total",
			Help:      "The number of messages dropped on transport shutdown.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "The number of completed mobile commands.",
		}, []string{"function", "result"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_timeouts_total",
			Help:      "The number of mobile commands completed by timeout.",
		}, []string{"function"}),
		pendingCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_commands",
			Help:      "The number of mobile commands awaiting HMI responses.",
		}),
	}

	collector.registry.MustRegister(collector)

	return collector
}

// Describe is part of the prometheus.Collector interface.
func (collector *Collector) Describe(ch chan<- *prometheus.Desc) {
	collector.messages.Describe(ch)
	collector.sendFailures.Describe(ch)
	collector.droppedMessages.Describe(ch)
	collector.commands.Describe(ch)
	collector.timeouts.Describe(ch)
	collector.pendingCommands.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (collector *Collector) Collect(ch chan<- prometheus.Metric) {
	collector.messages.Collect(ch)
	collector.sendFailures.Collect(ch)
	collector.droppedMessages.Collect(ch)
	collector.commands.Collect(ch)
	collector.timeouts.Collect(ch)
	collector.pendingCommands.Collect(ch)
}

// Handler returns metrics HTTP handler.
func (collector *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{})
}

// MessageProcessed counts message passed through transport.
func (collector *Collector) MessageProcessed(direction string, iface hmiapi.Interface) {
	collector.messages.WithLabelValues(direction, string(iface)).Inc()
}

// SendFailed counts failed HMI send.
func (collector *Collector) SendFailed(iface hmiapi.Interface) {
	collector.sendFailures.WithLabelValues(string(iface)).Inc()
}

// MessageDropped counts dropped message.
func (collector *Collector) MessageDropped() {
	collector.droppedMessages.Inc()
}

// CommandStarted counts started command.
func (collector *Collector) CommandStarted(functionID mobileapi.FunctionID) {
	collector.pendingCommands.Inc()
}

// CommandCompleted counts completed command.
func (collector *Collector) CommandCompleted(functionID mobileapi.FunctionID, resultCode mobileapi.Result) {
	collector.pendingCommands.Dec()
	collector.commands.WithLabelValues(string(functionID), string(resultCode)).Inc()
}

// CommandTimedOut counts command completed by timeout.
func (collector *Collector) CommandTimedOut(functionID mobileapi.FunctionID) {
	collector.timeouts.WithLabelValues(string(functionID)).Inc()
}
