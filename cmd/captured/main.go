// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

// captured is the capture agent daemon. It exposes a small HTTP control
// surface for starting and stopping interview capture sessions and streams
// the recorded material to the configured upload endpoint.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	captureRouters "github.com/hiresightai/capture/api/routers"
	"github.com/hiresightai/capture/config"
	internal_capture "github.com/hiresightai/capture/internal/capture"
	internal_indicator "github.com/hiresightai/capture/internal/indicator"
	internal_media "github.com/hiresightai/capture/internal/media"
	internal_notify "github.com/hiresightai/capture/internal/notify"
	internal_upload "github.com/hiresightai/capture/internal/upload"
	"github.com/hiresightai/capture/pkg/commons"
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

	uploader := internal_upload.NewClient(
		logger,
		cfg.UploadConfig.BaseURL,
		time.Duration(cfg.UploadConfig.RequestTimeoutSeconds)*time.Second,
	)

	capture := cfg.CaptureConfig
	handoffBound := time.Duration(capture.HandoffBoundSeconds) * time.Second
	manager := internal_capture.NewManager(
		logger,
		internal_media.NewSyntheticDevice(),
		uploader,
		uploader,
		internal_indicator.NewLogIndicator(logger),
		internal_notify.NewBoard(logger),
		internal_capture.WithVideoOptions(
			internal_capture.WithVideoChunkInterval(time.Duration(capture.VideoChunkIntervalSeconds)*time.Second),
			internal_capture.WithVideoBatchThreshold(capture.VideoBatchThreshold),
			internal_capture.WithVideoHandoffBound(handoffBound),
		),
		internal_capture.WithAudioOptions(
			internal_capture.WithAudioChunkInterval(time.Duration(capture.AudioChunkIntervalSeconds)*time.Second),
			internal_capture.WithAudioHandoffBound(handoffBound),
		),
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	captureRouters.HealthCheckRoutes(cfg, engine, logger)
	captureRouters.CaptureRoutes(cfg, engine, logger, manager)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Infof("capture agent %s listening on %s, uploading to %s",
		cfg.Version, addr, cfg.UploadConfig.BaseURL)
	if err := engine.Run(addr); err != nil {
		logger.Errorf("capture agent terminated: %v", err)
	}
}
