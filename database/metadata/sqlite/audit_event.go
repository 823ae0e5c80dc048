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

package sqlite

import (
	"gorm.io/gorm"

	"github.com/blinklabs-io/tally/database/models"
)

// AddAuditEvent stores one event. Events already stored under the same
// event id are ignored.
func (d *MetadataStoreSqlite) AddAuditEvent(evt models.AuditEvent, txn *gorm.DB) error {
	result := d.resolveDB(txn).
		Where(models.AuditEvent{EventID: evt.EventID}).
		FirstOrCreate(&evt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		d.rowsWritten.WithLabelValues(models.AuditEvent{}.TableName()).Inc()
	}
	return nil
}

// GetAuditEvents returns events in sequence order. An empty eventType
// matches every type and a limit of zero or less returns every match.
func (d *MetadataStoreSqlite) GetAuditEvents(
	eventType string,
	afterSequence uint64,
	limit int,
	txn *gorm.DB,
) ([]models.AuditEvent, error) {
	var ret []models.AuditEvent
	query := d.resolveDB(txn).Where("sequence > ?", afterSequence)
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	query = query.Order("sequence")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
