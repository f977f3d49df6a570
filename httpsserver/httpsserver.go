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

// Package httpsserver serves broker metrics over HTTP(S).
package httpsserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	metricsPath       = "/metrics"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// HTTPSServer https server structure.
type HTTPSServer struct {
	httpServer *http.Server
	listener   net.Listener
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates metrics server. Plain HTTP is used if cert or key is empty.
func New(url, cert, key string, metricsHandler http.Handler) (server *HTTPSServer, err error) {
	log.WithField("url", url).Debug("Create https server")

	mux := http.NewServeMux()

	mux.Handle(metricsPath, metricsHandler)

	server = &HTTPSServer{
		httpServer: &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
	}

	if server.listener, err = net.Listen("tcp", url); err != nil {
		return nil, aoserrors.Wrap(err)
	}

	go func() {
		var serveErr error

		if cert != "" && key != "" {
			serveErr = server.httpServer.ServeTLS(server.listener, cert, key)
		} else {
			serveErr = server.httpServer.Serve(server.listener)
		}

		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Errorf("Https server error: %s", serveErr)
		}
	}()

	return server, nil
}

// Addr returns server listen address.
func (server *HTTPSServer) Addr() string {
	return server.listener.Addr().String()
}

// Close closes https server.
func (server *HTTPSServer) Close() {
	log.Debug("Close https server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.httpServer.Shutdown(ctx); err != nil {
		log.Errorf("Can't shutdown https server: %s", err)
	}
}
