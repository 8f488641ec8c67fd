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
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// DefaultServerIPs is a default list of IPs the server binds to if nothing else is specified
var DefaultServerIPs = MultiIPs{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}

// Config is a server config structure
type Config struct {
	ExtraOffset    time.Duration `yaml:"extra_offset"`
	IPs            MultiIPs      `yaml:"ips"`
	MonitoringPort int           `yaml:"monitoring_port"`
	Port           int           `yaml:"port"`
	Workers        int           `yaml:"workers"`
}

// MultiIPs is a wrapper allowing to set multiple IPs with a flag parser
type MultiIPs []net.IP

// Set adds an IP to the list
func (m *MultiIPs) Set(ipaddr string) error {
	ip := net.ParseIP(ipaddr)
	if ip == nil {
		return fmt.Errorf("invalid ip address %s", ipaddr)
	}
	*m = append([]net.IP(*m), ip)
	return nil
}

// String returns joined list of IPs
func (m *MultiIPs) String() string {
	ips := make([]string, 0, len(*m))
	for _, ip := range *m {
		ips = append(ips, ip.String())
	}
	return strings.Join(ips, ", ")
}

// SetDefault populates the list with default IPs, if none were set
func (m *MultiIPs) SetDefault() {
	if len(*m) != 0 {
		return
	}
	*m = DefaultServerIPs
}

// UnmarshalYAML parses the list from a sequence of strings
func (m *MultiIPs) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw []string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*m = nil
	for _, ipaddr := range raw {
		if err := m.Set(ipaddr); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("will not start without workers")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.IPs) == 0 {
		return fmt.Errorf("will not start without IPs to listen on")
	}
	return nil
}

// ReadConfig merges config from a yaml file into c. Values already set in
// c act as defaults for keys the file doesn't mention.
func ReadConfig(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	return nil
}
