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

package server

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	c := &Config{Workers: 10, Port: 9123, IPs: DefaultServerIPs}
	require.NoError(t, c.Validate())

	c = &Config{Workers: 0, Port: 9123, IPs: DefaultServerIPs}
	require.Error(t, c.Validate())

	c = &Config{Workers: 10, Port: -1, IPs: DefaultServerIPs}
	require.Error(t, c.Validate())

	c = &Config{Workers: 10, Port: 9123}
	require.Error(t, c.Validate())
}

func TestMultiIPs(t *testing.T) {
	m := MultiIPs{}
	require.NoError(t, m.Set("127.0.0.1"))
	require.NoError(t, m.Set("::1"))
	require.Error(t, m.Set("not an ip"))
	require.Equal(t, "127.0.0.1, ::1", m.String())

	empty := MultiIPs{}
	empty.SetDefault()
	require.Equal(t, DefaultServerIPs, empty)

	m.SetDefault()
	require.Len(t, m, 2, "SetDefault must not override explicit IPs")
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responder.yaml")
	content := `
port: 9123
workers: 4
extra_offset: 5s
monitoring_port: 8081
ips:
  - 127.0.0.1
  - ::1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := &Config{}
	require.NoError(t, ReadConfig(path, c))
	require.Equal(t, 9123, c.Port)
	require.Equal(t, 4, c.Workers)
	require.Equal(t, 5*time.Second, c.ExtraOffset)
	require.Equal(t, 8081, c.MonitoringPort)
	require.Equal(t, MultiIPs{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}, c.IPs)
}

func TestReadConfigBadIP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ips: [nope]"), 0644))

	c := &Config{}
	require.Error(t, ReadConfig(path, c))
}

func TestReadConfigMissingFile(t *testing.T) {
	c := &Config{}
	require.Error(t, ReadConfig(filepath.Join(t.TempDir(), "nope.yaml"), c))
}
