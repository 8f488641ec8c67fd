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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/timesimp/client"
	"github.com/facebook/timesimp/simp"
)

var (
	syncServerFlag   string
	syncSamplesFlag  uint8
	syncJitterFlag   time.Duration
	syncTimeoutFlag  time.Duration
	syncLoopFlag     bool
	syncIntervalFlag time.Duration
)

func init() {
	RootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVarP(&syncServerFlag, "server", "s", "127.0.0.1:9123", "server to sync against")
	syncCmd.Flags().Uint8Var(&syncSamplesFlag, "samples", simp.DefaultSamples, "how many samples to take, forced odd in [3, 255]")
	syncCmd.Flags().DurationVar(&syncJitterFlag, "jitter", simp.DefaultJitter, "maximum random delay between samples, clamped to [10us, 10s]")
	syncCmd.Flags().DurationVar(&syncTimeoutFlag, "timeout", client.DefaultTimeout, "timeout of a single query")
	syncCmd.Flags().BoolVar(&syncLoopFlag, "loop", false, "keep syncing on an interval instead of one shot")
	syncCmd.Flags().DurationVar(&syncIntervalFlag, "interval", time.Minute, "interval between syncs with --loop")
}

func runSync() error {
	c, err := client.New(&client.Config{
		Address:   syncServerFlag,
		StateFile: rootStateFileFlag,
		Timeout:   syncTimeoutFlag,
		Interval:  syncIntervalFlag,
		Settings:  simp.Settings{Samples: syncSamplesFlag, Jitter: syncJitterFlag},
	})
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigStop := make(chan os.Signal, 1)
	signal.Notify(sigStop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigStop
		cancel()
	}()

	if syncLoopFlag {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	offset, err := c.SyncOnce(ctx)
	if err != nil {
		return err
	}
	if offset == nil {
		return fmt.Errorf("not enough samples to have confidence in the result")
	}
	fmt.Println(color.GreenString("offset of %s: %v", syncServerFlag, *offset))
	return nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize against a server and persist the offset",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runSync(); err != nil {
			log.Fatal(err)
		}
	},
}
