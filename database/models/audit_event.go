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

// AuditEvent is one published event, kept verbatim as JSON
type AuditEvent struct {
	Timestamp time.Time `gorm:"index"`
	EventID   string    `gorm:"size:36;uniqueIndex"`
	Type      string    `gorm:"size:64;index"`
	Data      []byte
	ID        uint   `gorm:"primarykey"`
	Sequence  uint64 `gorm:"index"`
}

func (AuditEvent) TableName() string {
	return "audit_event"
}
