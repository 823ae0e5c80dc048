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

package metadata

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/blinklabs-io/tally/database/metadata/sqlite"
	"github.com/blinklabs-io/tally/database/models"
)

// MetadataStore holds the queryable projections of the core. Every method
// taking a *gorm.DB runs inside that transaction, or directly against the
// database when it is nil.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(*gorm.DB, int64) error
	Transaction() *gorm.DB

	// Audit log
	AddAuditEvent(models.AuditEvent, *gorm.DB) error
	GetAuditEvents(
		string, // event type, empty for all
		uint64, // sequence lower bound, exclusive
		int, // limit
		*gorm.DB,
	) ([]models.AuditEvent, error)

	// Election index
	SetElection(models.Election, *gorm.DB) error
	UpdateElectionState(uint64, string, *gorm.DB) error
	SetElectionResult(
		uint64, // election id
		uint64, // winner id
		uint64, // total votes
		*gorm.DB,
	) error
	IncrementElectionVotes(uint64, *gorm.DB) error
	GetElection(uint64, *gorm.DB) (*models.Election, error)
	GetElections(*gorm.DB) ([]models.Election, error)

	// Vote commitments
	AddVoteCommitment(models.VoteCommitment, *gorm.DB) (bool, error)
	GetVoteCommitments(uint64, *gorm.DB) ([]models.VoteCommitment, error)
}

// New returns the sqlite metadata store. An empty dataDir keeps the store
// in memory.
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	store, err := sqlite.New(dataDir, logger, promRegistry)
	if err != nil {
		return nil, err
	}
	return store, nil
}
