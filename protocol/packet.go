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
Package protocol implements the timesimp wire format.
It provides quick and transparent translation between fixed-width
big-endian packets and simply accessible structs.

The format is minimal and fixed: a request is a single signed 64-bit
microseconds-since-epoch timestamp, a response is two of them (client
timestamp first, then server timestamp). There is no checksum and no
version byte.
*/
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// RequestSizeBytes sets the size of a request packet
const RequestSizeBytes = 8

// ResponseSizeBytes sets the size of a response packet
const ResponseSizeBytes = 16

// ErrNeedData is returned when a packet is shorter than the fixed format
var ErrNeedData = errors.New("not enough data")

// ErrInvalidTimestamp is returned when a microsecond count doesn't map to a representable timestamp
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamps are bound to years [-9999, 9999], same range as the storage
// formats we interoperate with. Anything outside fails to encode or decode.
var (
	minTimestamp = time.Date(-9999, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// Request is a client query: the client clock reading taken the moment
// the request is sent.
type Request struct {
	Client time.Time
}

// Response is a server answer: the client timestamp echoed back unchanged,
// plus the server clock reading taken the moment it answered.
type Response struct {
	Client time.Time
	Server time.Time
}

func timeToMicros(t time.Time) (int64, error) {
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidTimestamp, t)
	}
	return t.UnixMicro(), nil
}

func microsToTime(us int64) (time.Time, error) {
	t := time.UnixMicro(us).UTC()
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return time.Time{}, fmt.Errorf("%w: %d microseconds is out of range", ErrInvalidTimestamp, us)
	}
	return t, nil
}

// Bytes converts Request to []bytes
func (r *Request) Bytes() ([]byte, error) {
	us, err := timeToMicros(r.Client)
	if err != nil {
		return nil, err
	}
	b := make([]byte, RequestSizeBytes)
	binary.BigEndian.PutUint64(b, uint64(us))
	return b, nil
}

// BytesToRequest converts []bytes to Request.
// Only the first 8 bytes are read, anything beyond is ignored.
func BytesToRequest(b []byte) (*Request, error) {
	if len(b) < RequestSizeBytes {
		return nil, fmt.Errorf("%w: request needs %d bytes, got %d", ErrNeedData, RequestSizeBytes, len(b))
	}
	client, err := microsToTime(int64(binary.BigEndian.Uint64(b[:8])))
	if err != nil {
		return nil, err
	}
	return &Request{Client: client}, nil
}

// Bytes converts Response to []bytes
func (r *Response) Bytes() ([]byte, error) {
	cus, err := timeToMicros(r.Client)
	if err != nil {
		return nil, err
	}
	sus, err := timeToMicros(r.Server)
	if err != nil {
		return nil, err
	}
	b := make([]byte, ResponseSizeBytes)
	binary.BigEndian.PutUint64(b[:8], uint64(cus))
	binary.BigEndian.PutUint64(b[8:], uint64(sus))
	return b, nil
}

// BytesToResponse converts []bytes to Response.
// Only the first 16 bytes are read, anything beyond is ignored.
func BytesToResponse(b []byte) (*Response, error) {
	if len(b) < ResponseSizeBytes {
		return nil, fmt.Errorf("%w: response needs %d bytes, got %d", ErrNeedData, ResponseSizeBytes, len(b))
	}
	client, err := microsToTime(int64(binary.BigEndian.Uint64(b[:8])))
	if err != nil {
		return nil, err
	}
	server, err := microsToTime(int64(binary.BigEndian.Uint64(b[8:16])))
	if err != nil {
		return nil, err
	}
	return &Response{Client: client, Server: server}, nil
}
