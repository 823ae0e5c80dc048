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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/keystore"
)

type signFlags struct {
	keyFile  string
	method   string
	params   string
	nonce    uint64
	election uint64
	expires  time.Duration
}

func buildSubmission(flags signFlags, now time.Time) (auth.Submission, error) {
	if flags.keyFile == "" {
		return auth.Submission{}, errors.New("--key is required")
	}
	if flags.method == "" {
		return auth.Submission{}, errors.New("--method is required")
	}
	if flags.expires <= 0 {
		return auth.Submission{}, errors.New("--expires must be positive")
	}
	payload := auth.Payload{
		Method:   flags.method,
		Election: flags.election,
		Nonce:    flags.nonce,
		Expires:  now.Add(flags.expires).Unix(),
	}
	if flags.params != "" {
		if !json.Valid([]byte(flags.params)) {
			return auth.Submission{}, fmt.Errorf("--params is not valid JSON: %s", flags.params)
		}
		payload.Params = json.RawMessage(flags.params)
	}
	key, err := keystore.Load(flags.keyFile)
	if err != nil {
		return auth.Submission{}, err
	}
	return auth.Sign(key.PrivateKey, payload)
}

func signCommand() *cobra.Command {
	var flags signFlags
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an operation for submission to a node",
		Long: "Sign an operation and print the submission JSON. " +
			"POST it to /api/v1/operations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub, err := buildSubmission(flags, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(sub)
		},
	}
	cmd.Flags().StringVarP(&flags.keyFile, "key", "k", "", "signing key file")
	cmd.Flags().StringVarP(&flags.method, "method", "m", "", "operation method, e.g. registry.registerVoter")
	cmd.Flags().StringVarP(&flags.params, "params", "p", "", "operation parameters as JSON")
	cmd.Flags().Uint64Var(&flags.nonce, "nonce", 0, "operation nonce, greater than the last one used")
	cmd.Flags().Uint64Var(&flags.election, "election", 0, "target election id for election methods")
	cmd.Flags().DurationVar(&flags.expires, "expires", 10*time.Minute, "how long the signature stays valid")
	return cmd
}
