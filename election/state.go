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

package election

import (
	"fmt"
	"strings"
)

// State is the election lifecycle state
type State uint8

const (
	StateCreated State = iota
	StateOngoing
	StatePaused
	StateEnded
	StateFinalized
)

var stateNames = map[State]string{
	StateCreated:   "created",
	StateOngoing:   "ongoing",
	StatePaused:    "paused",
	StateEnded:     "ended",
	StateFinalized: "finalized",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(data []byte) error {
	str := strings.ToLower(string(data))
	for k, v := range stateNames {
		if v == str {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown election state: %s", data)
}

// Closed reports whether the election accepts no more votes
func (s State) Closed() bool {
	return s == StateEnded || s == StateFinalized
}
