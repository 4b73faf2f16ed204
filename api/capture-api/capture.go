// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package capture_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiresightai/capture/config"
	internal_capture "github.com/hiresightai/capture/internal/capture"
	"github.com/hiresightai/capture/pkg/commons"
)

type captureApi struct {
	config  *config.AppConfig
	logger  commons.Logger
	manager *internal_capture.Manager
}

// New creates the session control API.
func New(cfg *config.AppConfig, logger commons.Logger, manager *internal_capture.Manager) *captureApi {
	return &captureApi{
		config:  cfg,
		logger:  logger,
		manager: manager,
	}
}

type unitResult struct {
	Success  bool   `json:"success"`
	Path     string `json:"path,omitempty"`
	Anomaly  bool   `json:"anomaly,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}

func toUnitResult(res internal_capture.Result) unitResult {
	out := unitResult{
		Success:  res.Success,
		Path:     res.Path,
		Anomaly:  res.Anomaly,
		Degraded: res.Degraded,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// Start begins capture for the session key in the path. Starting a key that
// is already live is a conflict, not a restart.
func (api *captureApi) Start(c *gin.Context) {
	sessionKey := c.Param("session")

	if _, exists := api.manager.Get(sessionKey); exists {
		c.JSON(http.StatusConflict, gin.H{"error": "session already started"})
		return
	}

	session, err := api.manager.Start(c.Request.Context(), sessionKey)
	if err != nil {
		api.logger.Errorf("failed to start capture: session=%s: %v", sessionKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionKey": session.Key(),
		"videoState": session.VideoState(),
		"audioState": session.AudioState(),
	})
}

// Stop halts both capture units and reports their completion handoffs.
// Stopping an already-stopped session returns the cached results.
func (api *captureApi) Stop(c *gin.Context) {
	sessionKey := c.Param("session")

	result, err := api.manager.Stop(c.Request.Context(), sessionKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionKey": sessionKey,
		"video":      toUnitResult(result.Video),
		"audio":      toUnitResult(result.Audio),
	})
}

// Status reports the unit lifecycle states and, once available, the resolved
// audio recording path.
func (api *captureApi) Status(c *gin.Context) {
	sessionKey := c.Param("session")

	session, ok := api.manager.Get(sessionKey)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	out := gin.H{
		"sessionKey": session.Key(),
		"videoState": session.VideoState(),
		"audioState": session.AudioState(),
	}
	if path, ok := api.manager.Board().AudioPath(sessionKey); ok {
		out["audioPath"] = path
	}
	c.JSON(http.StatusOK, out)
}
