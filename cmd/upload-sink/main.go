// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

// upload-sink is the development upload endpoint. It implements the two
// multipart contracts the capture agent speaks, stores payloads under the
// data dir and journals every received upload in SQLite.
package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hiresightai/capture/config"
	internal_sink "github.com/hiresightai/capture/internal/sink"
	"github.com/hiresightai/capture/pkg/commons"
	"github.com/hiresightai/capture/pkg/connectors"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("failed to load application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	sqlite, err := connectors.NewSqliteConnector(logger, filepath.Join(cfg.DataDir, "uploads.db"))
	if err != nil {
		logger.Errorf("failed to open upload journal: %v", err)
		return
	}
	store := internal_sink.NewStore(sqlite, logger)
	if err := store.Migrate(context.Background()); err != nil {
		logger.Errorf("failed to migrate upload journal: %v", err)
		return
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	internal_sink.UploadRoutes(cfg, engine, logger, store)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Infof("upload sink %s listening on %s, data dir %s", cfg.Version, addr, cfg.DataDir)
	if err := engine.Run(addr); err != nil {
		logger.Errorf("upload sink terminated: %v", err)
	}
}
