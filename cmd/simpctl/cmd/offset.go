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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/timesimp/client"
)

func runOffset() error {
	store := client.OffsetStore{Path: rootStateFileFlag}
	offset, err := store.LoadOffset(context.Background())
	if err != nil {
		return err
	}
	if offset == nil {
		return fmt.Errorf("no offset stored in %q", rootStateFileFlag)
	}
	fmt.Printf("offset: %v\n", *offset)
	fmt.Printf("adjusted time: %v\n", time.Now().Add(*offset))
	return nil
}

var offsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "Print the stored offset and the adjusted local time",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runOffset(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(offsetCmd)
}
