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

package models

import "time"

// Election is the indexed view of an election. The core owns the state;
// this row is a projection of its events.
type Election struct {
	StartTime   time.Time
	EndTime     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string
	Type        string
	MetadataRef string
	State       string `gorm:"size:16;index"`
	Address     []byte `gorm:"size:20;uniqueIndex"`
	Creator     []byte `gorm:"size:20;index"`
	ID          uint64 `gorm:"primarykey;autoIncrement:false"`
	WinnerID    uint64
	TotalVotes  uint64
}

func (Election) TableName() string {
	return "election"
}
