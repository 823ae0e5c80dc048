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
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/tally/database/models"
)

// SetElection inserts or replaces an election index row
func (d *MetadataStoreSqlite) SetElection(election models.Election, txn *gorm.DB) error {
	result := d.resolveDB(txn).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&election)
	if result.Error != nil {
		return result.Error
	}
	d.rowsWritten.WithLabelValues(models.Election{}.TableName()).Inc()
	return nil
}

// UpdateElectionState records a lifecycle transition on an indexed
// election. Unknown ids are ignored.
func (d *MetadataStoreSqlite) UpdateElectionState(id uint64, state string, txn *gorm.DB) error {
	return d.updateElection(id, map[string]any{"state": state}, txn)
}

// SetElectionResult records the final tally of an indexed election
func (d *MetadataStoreSqlite) SetElectionResult(
	id uint64,
	winnerID uint64,
	totalVotes uint64,
	txn *gorm.DB,
) error {
	return d.updateElection(id, map[string]any{
		"winner_id":   winnerID,
		"total_votes": totalVotes,
	}, txn)
}

// IncrementElectionVotes counts one more vote on an indexed election
func (d *MetadataStoreSqlite) IncrementElectionVotes(id uint64, txn *gorm.DB) error {
	return d.updateElection(id, map[string]any{
		"total_votes": gorm.Expr("total_votes + ?", 1),
	}, txn)
}

func (d *MetadataStoreSqlite) updateElection(id uint64, values map[string]any, txn *gorm.DB) error {
	result := d.resolveDB(txn).
		Model(&models.Election{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		d.rowsWritten.WithLabelValues(models.Election{}.TableName()).Inc()
	}
	return nil
}

// GetElection returns the indexed election or nil if there is none
func (d *MetadataStoreSqlite) GetElection(id uint64, txn *gorm.DB) (*models.Election, error) {
	var ret models.Election
	result := d.resolveDB(txn).First(&ret, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetElections returns every indexed election in id order
func (d *MetadataStoreSqlite) GetElections(txn *gorm.DB) ([]models.Election, error) {
	var ret []models.Election
	if result := d.resolveDB(txn).Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
