// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/tally/keystore"
)

func keygenCommand() *cobra.Command {
	var out, description string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			key, err := keystore.Generate(description)
			if err != nil {
				return err
			}
			if err := keystore.Save(out, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.Address.Hex())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "path of the key file to create")
	cmd.Flags().StringVar(&description, "description", "", "free-form key description")
	return cmd
}
