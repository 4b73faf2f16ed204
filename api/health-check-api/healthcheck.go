// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiresightai/capture/config"
	"github.com/hiresightai/capture/pkg/commons"
)

type healthCheckApi struct {
	config *config.AppConfig
	logger commons.Logger
}

func New(cfg *config.AppConfig, logger commons.Logger) *healthCheckApi {
	return &healthCheckApi{config: cfg, logger: logger}
}

func (api *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": api.config.Name, "version": api.config.Version})
}

func (api *healthCheckApi) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
