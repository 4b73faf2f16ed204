// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package capture_routers

import (
	"github.com/gin-gonic/gin"
	captureApi "github.com/hiresightai/capture/api/capture-api"
	"github.com/hiresightai/capture/config"
	internal_capture "github.com/hiresightai/capture/internal/capture"
	"github.com/hiresightai/capture/pkg/commons"
)

func CaptureRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, manager *internal_capture.Manager) {
	logger.Info("Capture session routes added to engine.")
	apiv1 := engine.Group("/v1")
	cApi := captureApi.New(cfg, logger, manager)
	{
		apiv1.POST("/sessions/:session/start", cApi.Start)
		apiv1.POST("/sessions/:session/stop", cApi.Stop)
		apiv1.GET("/sessions/:session", cApi.Status)
	}
}
