// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package connectors

import (
	"context"
	"fmt"

	"github.com/hiresightai/capture/pkg/commons"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteConnector hands out request-scoped gorm handles over a single
// embedded database file.
type SqliteConnector interface {
	DB(ctx context.Context) *gorm.DB
}

type sqliteConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

// NewSqliteConnector opens (creating if needed) the database at path.
// Use ":memory:" for throwaway test databases.
func NewSqliteConnector(logger commons.Logger, path string) (SqliteConnector, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	logger.Infof("sqlite connector ready: path=%s", path)
	return &sqliteConnector{db: db, logger: logger}, nil
}

func (c *sqliteConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}
