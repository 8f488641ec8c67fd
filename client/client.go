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
Package client provides a ready-made Syncer: queries go over a connected
UDP socket, the offset is persisted to a state file in whole microseconds.
The connection is established once and kept for the lifetime of the
client, so all but the first sample are a single round trip.
*/
package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/timesimp/protocol"
	"github.com/facebook/timesimp/simp"
)

// DefaultTimeout bounds one UDP round trip
const DefaultTimeout = time.Second

// Config specifies Client run options
type Config struct {
	// Address of the server to talk to, host:port
	Address string
	// StateFile is where the offset is persisted
	StateFile string
	// Timeout of a single query round trip
	Timeout time.Duration
	// Interval between two sync attempts in Run
	Interval time.Duration
	// Settings for each sync attempt
	Settings simp.Settings
}

// Client implements simp.Syncer over UDP with file-backed offset storage
type Client struct {
	OffsetStore

	cfg  *Config
	conn *net.UDPConn
}

// New resolves the server address and connects the UDP socket
func New(cfg *Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	addr, err := net.ResolveUDPAddr("udp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", cfg.Address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		OffsetStore: OffsetStore{Path: cfg.StateFile},
		cfg:         cfg,
		conn:        conn,
	}, nil
}

// Close releases the UDP socket
func (c *Client) Close() error {
	return c.conn.Close()
}

// QueryServer performs one round trip over the connected socket.
// The round trip is bounded by Config.Timeout and by ctx: cancellation
// expires the socket deadline so an in-flight read returns right away.
func (c *Client) QueryServer(ctx context.Context, request *protocol.Request) (*protocol.Response, error) {
	requestBytes, err := request.Bytes()
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	if _, err := c.conn.Write(requestBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, protocol.ResponseSizeBytes)
	n, err := c.conn.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return protocol.BytesToResponse(buf[:n])
}

// Sleep suspends for at least the given duration, or until ctx is cancelled
func (c *Client) Sleep(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// SyncOnce runs a single synchronization attempt
func (c *Client) SyncOnce(ctx context.Context) (*time.Duration, error) {
	return simp.AttemptSync(ctx, c, c.cfg.Settings)
}

// Run synchronizes on the configured interval until ctx is cancelled.
// Scheduling is done on the local monotonic clock, unaffected by the
// offsets being computed.
func (c *Client) Run(ctx context.Context) error {
	for {
		offset, err := c.SyncOnce(ctx)
		switch {
		case err != nil:
			log.Errorf("sync against %s failed: %v", c.cfg.Address, err)
		case offset == nil:
			log.Warning("not enough samples to have confidence in the result")
		default:
			log.Infof(color.GreenString("offset of %s: %v", c.cfg.Address, *offset))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.Interval):
		}
	}
}
