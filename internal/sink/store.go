// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_sink

import (
	"context"
	"fmt"

	"github.com/hiresightai/capture/pkg/commons"
	"github.com/hiresightai/capture/pkg/connectors"
)

// Store journals received uploads.
type Store interface {
	// Migrate ensures the journal schema exists. Called once at startup.
	Migrate(ctx context.Context) error

	// Journal appends one upload record.
	Journal(ctx context.Context, record *UploadRecord) error

	// BySession returns every journaled upload for a session in arrival
	// order, so the chunk cadence can be replayed during debugging.
	BySession(ctx context.Context, sessionKey string) ([]UploadRecord, error)
}

type sqliteStore struct {
	sqlite connectors.SqliteConnector
	logger commons.Logger
}

// NewStore creates an upload journal backed by SQLite.
func NewStore(sqlite connectors.SqliteConnector, logger commons.Logger) Store {
	return &sqliteStore{
		sqlite: sqlite,
		logger: logger,
	}
}

func (s *sqliteStore) Migrate(ctx context.Context) error {
	db := s.sqlite.DB(ctx)
	if err := db.AutoMigrate(&UploadRecord{}); err != nil {
		return fmt.Errorf("failed to migrate upload journal: %w", err)
	}
	return nil
}

func (s *sqliteStore) Journal(ctx context.Context, record *UploadRecord) error {
	db := s.sqlite.DB(ctx)
	if err := db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to journal %s upload for session %s: %w",
			record.Kind, record.SessionKey, err)
	}

	s.logger.Debugf("journaled upload: session=%s kind=%s chunkIndex=%d final=%v size=%d",
		record.SessionKey, record.Kind, record.ChunkIndex, record.IsFinal, record.SizeBytes)
	return nil
}

func (s *sqliteStore) BySession(ctx context.Context, sessionKey string) ([]UploadRecord, error) {
	db := s.sqlite.DB(ctx)
	var records []UploadRecord
	if err := db.Where("session_key = ?", sessionKey).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list uploads for session %s: %w", sessionKey, err)
	}
	return records, nil
}
