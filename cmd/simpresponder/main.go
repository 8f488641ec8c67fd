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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/timesimp/responder/server"
	"github.com/facebook/timesimp/responder/stats"
)

func main() {
	s := server.Server{}

	var (
		logLevel    string
		configFile  string
		statsFormat string
	)

	flag.StringVar(&logLevel, "loglevel", "info", "Set a log level. Can be: trace, debug, info, warning, error")
	flag.StringVar(&configFile, "config", "", "Path to a yaml config, flags act as defaults")
	flag.StringVar(&statsFormat, "stats", "json", "Stats reporter format. Can be: json, prometheus")
	flag.IntVar(&s.Config.Port, "port", 9123, "Port to run service on")
	flag.IntVar(&s.Config.MonitoringPort, "monitoringport", 0, "Port to run monitoring server on, 0 to disable")
	flag.IntVar(&s.Config.Workers, "workers", 10, "How many workers (goroutines) to run")
	flag.Var(&s.Config.IPs, "ip", fmt.Sprintf("IP to listen on. Repeat for multiple. Default: %s", server.DefaultServerIPs.String()))
	flag.DurationVar(&s.Config.ExtraOffset, "extraoffset", 0, "Extra offset to apply to returned timestamps")
	flag.Parse()

	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Unrecognized log level: %v", logLevel)
	}
	log.SetLevel(lvl)

	if configFile != "" {
		if err := server.ReadConfig(configFile, &s.Config); err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}
	}
	s.Config.IPs.SetDefault()
	if err := s.Config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	switch statsFormat {
	case "json":
		s.Stats = &stats.JSONStats{}
	case "prometheus":
		s.Stats = stats.NewPromStats()
	default:
		log.Fatalf("Unrecognized stats format: %v", statsFormat)
	}

	// handle interrupt for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigStop := make(chan os.Signal, 1)
	signal.Notify(sigStop, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	go func() {
		<-sigStop
		log.Info("Shutting down")
		cancel()
	}()

	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server failed: %v", err)
	}
}
