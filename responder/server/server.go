/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package server implements a simple UDP server answering timesimp requests.
Every request is an 8-byte client timestamp; the reply echoes it and adds
the server clock reading taken the moment the reply is built.
*/
package server

import (
	"context"
	"errors"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/timesimp/protocol"
	"github.com/facebook/timesimp/responder/stats"
)

// task is a data structure with everything needed to answer one request independently.
type task struct {
	conn    *net.UDPConn
	addr    *net.UDPAddr
	request *protocol.Request
	stats   stats.Stats
}

// Server is a type for UDP server which handles connections.
type Server struct {
	Config Config
	Stats  stats.Stats

	tasks chan task
}

// Start binds all configured IPs and serves until ctx is cancelled or a
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	log.Infof("Creating %d goroutine workers", s.Config.Workers)
	s.tasks = make(chan task, s.Config.Workers)
	for i := 0; i < s.Config.Workers; i++ {
		go s.startWorker()
	}

	log.Infof("Starting %d listener(s)", len(s.Config.IPs))
	conns := make([]*net.UDPConn, 0, len(s.Config.IPs))
	for _, ip := range s.Config.IPs {
		log.Infof("Starting listener on %s:%d", ip.String(), s.Config.Port)
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: ip, Port: s.Config.Port})
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			close(s.tasks)
			return err
		}
		conns = append(conns, conn)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			defer conn.Close()
			return s.startListener(conn)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		// unblock the listeners
		for _, conn := range conns {
			conn.Close()
		}
		return ctx.Err()
	})
	if s.Config.MonitoringPort != 0 {
		g.Go(func() error {
			return s.Stats.Start(ctx, s.Config.MonitoringPort)
		})
	}
	err := g.Wait()
	// all listeners are gone at this point, let the workers drain and exit
	close(s.tasks)
	return err
}

// startListener reads requests from one connection and queues them as tasks
func (s *Server) startListener(conn *net.UDPConn) error {
	s.Stats.IncListeners()
	defer s.Stats.DecListeners()

	buf := make([]byte, protocol.RequestSizeBytes)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Warning("listener connection closed, exiting listener")
				return nil
			}
			log.Errorf("Failed to read packet on %s: %v", conn.LocalAddr(), err)
			s.Stats.IncReadError()
			continue
		}

		request, err := protocol.BytesToRequest(buf[:n])
		if err != nil {
			log.Debugf("invalid request from %s: %v", addr, err)
			s.Stats.IncInvalidFormat()
			continue
		}
		s.Stats.IncRequests()
		s.tasks <- task{conn: conn, addr: addr, request: request, stats: s.Stats}
	}
}

func (s *Server) startWorker() {
	s.Stats.IncWorkers()
	defer s.Stats.DecWorkers()

	for t := range s.tasks {
		t.serve(s.Config.ExtraOffset)
	}
}

// serve stamps the response as late as possible and sends it back.
func (t *task) serve(extraOffset time.Duration) {
	log.Debugf("Received request: %+v", t.request)
	response := &protocol.Response{
		Client: t.request.Client,
		Server: time.Now().Add(extraOffset),
	}
	responseBytes, err := response.Bytes()
	if err != nil {
		log.Errorf("Failed to convert %+v to bytes: %v", response, err)
		return
	}

	log.Debugf("Writing response: %+v", response)
	if _, err := t.conn.WriteToUDP(responseBytes, t.addr); err != nil {
		log.Debugf("Failed to respond to the request: %v", err)
		return
	}
	t.stats.IncResponses()
}
