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
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/tally/database/models"
)

// AddVoteCommitment stores a counted vote and reports whether a row was
// inserted. A second commitment for the same election and voter is ignored.
func (d *MetadataStoreSqlite) AddVoteCommitment(
	vote models.VoteCommitment,
	txn *gorm.DB,
) (bool, error) {
	result := d.resolveDB(txn).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&vote)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	d.rowsWritten.WithLabelValues(models.VoteCommitment{}.TableName()).Inc()
	return true, nil
}

// GetVoteCommitments returns the commitments of one election in the order
// they were stored
func (d *MetadataStoreSqlite) GetVoteCommitments(
	electionID uint64,
	txn *gorm.DB,
) ([]models.VoteCommitment, error) {
	var ret []models.VoteCommitment
	result := d.resolveDB(txn).
		Where("election_id = ?", electionID).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
