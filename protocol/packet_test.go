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

package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// Unix microseconds
	clientMicros = int64(1585147599631495)
	serverMicros = int64(1585147599631618) // client + 123us

	request = &Request{Client: time.UnixMicro(clientMicros).UTC()}
	// Same request as above in bytes
	requestBytes = []byte{0, 5, 161, 174, 239, 151, 180, 135}

	response = &Response{
		Client: time.UnixMicro(clientMicros).UTC(),
		Server: time.UnixMicro(serverMicros).UTC(),
	}
	// Same response as above in bytes
	responseBytes = []byte{0, 5, 161, 174, 239, 151, 180, 135, 0, 5, 161, 174, 239, 151, 181, 2}
)

// Testing conversion so if Request structure changes we notice
func TestRequestConversion(t *testing.T) {
	b, err := request.Bytes()
	require.NoError(t, err)
	require.Equal(t, requestBytes, b)
}

// Testing conversion so if Response structure changes we notice
func TestResponseConversion(t *testing.T) {
	b, err := response.Bytes()
	require.NoError(t, err)
	require.Equal(t, responseBytes, b)
}

func TestBytesToRequest(t *testing.T) {
	parsed, err := BytesToRequest(requestBytes)
	require.NoError(t, err)
	require.Equal(t, request, parsed)
}

func TestBytesToResponse(t *testing.T) {
	parsed, err := BytesToResponse(responseBytes)
	require.NoError(t, err)
	require.Equal(t, response, parsed)
}

func TestRequestRoundTrip(t *testing.T) {
	b, err := request.Bytes()
	require.NoError(t, err)
	parsed, err := BytesToRequest(b)
	require.NoError(t, err)
	require.True(t, parsed.Client.Equal(request.Client))
}

func TestResponseRoundTrip(t *testing.T) {
	b, err := response.Bytes()
	require.NoError(t, err)
	parsed, err := BytesToResponse(b)
	require.NoError(t, err)
	require.True(t, parsed.Client.Equal(response.Client))
	require.True(t, parsed.Server.Equal(response.Server))
}

func TestBytesToRequestNeedData(t *testing.T) {
	parsed, err := BytesToRequest(requestBytes[:7])
	require.ErrorIs(t, err, ErrNeedData)
	require.Nil(t, parsed)
}

func TestBytesToResponseNeedData(t *testing.T) {
	parsed, err := BytesToResponse(responseBytes[:15])
	require.ErrorIs(t, err, ErrNeedData)
	require.Nil(t, parsed)
}

func TestBytesToRequestInvalidTimestamp(t *testing.T) {
	// max int64 microseconds is way past year 9999
	parsed, err := BytesToRequest([]byte{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.ErrorIs(t, err, ErrInvalidTimestamp)
	require.Nil(t, parsed)
}

func TestBytesToResponseInvalidTimestamp(t *testing.T) {
	b := append([]byte{}, requestBytes...)
	b = append(b, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	parsed, err := BytesToResponse(b)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
	require.Nil(t, parsed)
}

func TestRequestBytesInvalidTimestamp(t *testing.T) {
	r := &Request{Client: time.Date(10001, time.January, 1, 0, 0, 0, 0, time.UTC)}
	b, err := r.Bytes()
	require.ErrorIs(t, err, ErrInvalidTimestamp)
	require.Nil(t, b)
}

// Decoding reads only the fixed-size prefix, trailing bytes are ignored
func TestTrailingBytesIgnored(t *testing.T) {
	long := append(append([]byte{}, requestBytes...), 0xde, 0xad, 0xbe, 0xef)
	parsed, err := BytesToRequest(long)
	require.NoError(t, err)
	require.Equal(t, request, parsed)

	longResp := append(append([]byte{}, responseBytes...), 0xde, 0xad, 0xbe, 0xef)
	parsedResp, err := BytesToResponse(longResp)
	require.NoError(t, err)
	require.Equal(t, response, parsedResp)
}
