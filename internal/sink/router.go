// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_sink

import (
	"github.com/gin-gonic/gin"
	"github.com/hiresightai/capture/config"
	"github.com/hiresightai/capture/pkg/commons"
)

// UploadRoutes registers the two upload endpoints the capture agent speaks.
func UploadRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, store Store) {
	logger.Info("Upload sink routes added to engine.")
	api := engine.Group("/api/uploads")
	uploadApi := New(cfg, logger, store)
	{
		api.POST("/video-chunk", uploadApi.VideoChunk)
		api.POST("/audio", uploadApi.Audio)
	}
}
