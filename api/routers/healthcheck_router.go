// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package capture_routers

import (
	"github.com/gin-gonic/gin"
	healthCheckApi "github.com/hiresightai/capture/api/health-check-api"
	"github.com/hiresightai/capture/config"
	"github.com/hiresightai/capture/pkg/commons"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger) {
	logger.Info("Internal HealthCheckRoutes added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
