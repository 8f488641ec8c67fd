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

package client

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/timesimp/protocol"
	"github.com/facebook/timesimp/simp"
)

func TestOffsetStore(t *testing.T) {
	ctx := context.Background()
	store := OffsetStore{Path: filepath.Join(t.TempDir(), "offset")}

	offset, err := store.LoadOffset(ctx)
	require.NoError(t, err)
	require.Nil(t, offset, "no offset stored yet")

	require.NoError(t, store.StoreOffset(ctx, 123*time.Microsecond))
	offset, err = store.LoadOffset(ctx)
	require.NoError(t, err)
	require.NotNil(t, offset)
	require.Equal(t, 123*time.Microsecond, *offset)

	// overwrite, including sign change
	require.NoError(t, store.StoreOffset(ctx, -5*time.Second))
	offset, err = store.LoadOffset(ctx)
	require.NoError(t, err)
	require.Equal(t, -5*time.Second, *offset)
}

func TestOffsetStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	store := OffsetStore{Path: filepath.Join(t.TempDir(), "offset")}
	require.NoError(t, os.WriteFile(store.Path, []byte("not a number"), 0644))

	_, err := store.LoadOffset(ctx)
	require.Error(t, err)
}

// startFakeServer answers every request with its clock shifted by offset
func startFakeServer(t *testing.T, offset time.Duration) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, protocol.RequestSizeBytes)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			request, err := protocol.BytesToRequest(buf[:n])
			if err != nil {
				continue
			}
			response := &protocol.Response{
				Client: request.Client,
				Server: time.Now().Add(offset),
			}
			responseBytes, err := response.Bytes()
			if err != nil {
				continue
			}
			_, _ = conn.WriteToUDP(responseBytes, addr)
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr)
}

func TestClientSyncOnce(t *testing.T) {
	addr := startFakeServer(t, 5*time.Second)

	c, err := New(&Config{
		Address:   addr.String(),
		StateFile: filepath.Join(t.TempDir(), "offset"),
		Settings:  simp.Settings{Samples: 5, Jitter: simp.MinJitter},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	offset, err := c.SyncOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, offset)
	drift := *offset - 5*time.Second
	require.Greater(t, drift, -5*time.Millisecond, "offset %v", *offset)
	require.Less(t, drift, 5*time.Millisecond, "offset %v", *offset)

	// the result must have been persisted
	stored, err := c.LoadOffset(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, *offset, *stored)
}

func TestClientQueryTimeout(t *testing.T) {
	// a socket nobody answers on
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	c, err := New(&Config{
		Address:   conn.LocalAddr().String(),
		StateFile: filepath.Join(t.TempDir(), "offset"),
		Timeout:   50 * time.Millisecond,
		Settings:  simp.Settings{Samples: 3, Jitter: simp.MinJitter},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	offset, err := c.SyncOnce(ctx)
	require.NoError(t, err, "dead transport is a no-confidence outcome, not an error")
	require.Nil(t, offset)
}

func TestClientQueryCancelled(t *testing.T) {
	// a socket nobody answers on, with a timeout far longer than the test
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	c, err := New(&Config{
		Address:   conn.LocalAddr().String(),
		StateFile: filepath.Join(t.TempDir(), "offset"),
		Timeout:   10 * time.Second,
		Settings:  simp.Settings{Samples: 3, Jitter: simp.MinJitter},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.QueryServer(ctx, &protocol.Request{Client: time.Now()})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second,
		"cancellation must unblock the query well before the socket timeout")
}

func TestClientAdjustedNow(t *testing.T) {
	addr := startFakeServer(t, 5*time.Second)

	c, err := New(&Config{
		Address:   addr.String(),
		StateFile: filepath.Join(t.TempDir(), "offset"),
		Settings:  simp.Settings{Samples: 3, Jitter: simp.MinJitter},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.SyncOnce(ctx)
	require.NoError(t, err)

	adjusted, err := simp.AdjustedNow(ctx, c)
	require.NoError(t, err)
	drift := time.Until(adjusted) - 5*time.Second
	require.Greater(t, drift, -time.Second)
	require.Less(t, drift, time.Second)
}
