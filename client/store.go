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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OffsetStore persists an offset to a file as whole microseconds.
// Stores are atomic overwrites via rename, so a sync attempt may safely
// store twice and a crash never leaves a half-written state file.
type OffsetStore struct {
	Path string
}

// LoadOffset returns the stored offset, or nil if the file doesn't exist yet
func (o OffsetStore) LoadOffset(_ context.Context) (*time.Duration, error) {
	data, err := os.ReadFile(o.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	us, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt state file %q: %w", o.Path, err)
	}
	offset := time.Duration(us) * time.Microsecond
	return &offset, nil
}

// StoreOffset overwrites the state file with the given offset
func (o OffsetStore) StoreOffset(_ context.Context, offset time.Duration) error {
	tmp := o.Path + ".tmp"
	data := strconv.FormatInt(offset.Microseconds(), 10) + "\n"
	if err := os.WriteFile(tmp, []byte(data), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, o.Path)
}
