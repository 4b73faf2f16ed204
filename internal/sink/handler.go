// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_sink

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hiresightai/capture/config"
	"github.com/hiresightai/capture/pkg/commons"
)

// sessionKeyPattern rejects anything that could traverse out of the data
// directory through the session_key form field.
var sessionKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

type uploadApi struct {
	config *config.AppConfig
	logger commons.Logger
	store  Store
}

// New creates the upload sink API handlers.
func New(cfg *config.AppConfig, logger commons.Logger, store Store) *uploadApi {
	return &uploadApi{
		config: cfg,
		logger: logger,
		store:  store,
	}
}

type videoChunkResponse struct {
	Success       bool   `json:"success"`
	RecordingPath string `json:"recording_path,omitempty"`
	Error         string `json:"error,omitempty"`
}

type audioResponse struct {
	Status    string `json:"status"`
	AudioPath string `json:"audio_path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VideoChunk accepts one batched video blob and appends it to the session's
// growing recording file. Batches for a session always arrive in order from
// a single agent, so a plain append reconstructs the full stream.
func (api *uploadApi) VideoChunk(c *gin.Context) {
	sessionKey := c.PostForm("session_key")
	if !sessionKeyPattern.MatchString(sessionKey) {
		c.JSON(http.StatusBadRequest, videoChunkResponse{Error: "invalid session_key"})
		return
	}

	chunkIndex, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, videoChunkResponse{Error: "invalid chunk_index"})
		return
	}
	isFinal := c.PostForm("is_final") == "true"

	file, err := c.FormFile("video_chunk")
	if err != nil {
		c.JSON(http.StatusBadRequest, videoChunkResponse{Error: "missing video_chunk"})
		return
	}

	relPath := filepath.Join(sessionKey, fmt.Sprintf("interview_video_%s.webm", sessionKey))
	size, err := api.appendUpload(file, relPath)
	if err != nil {
		api.logger.Errorf("failed to persist video chunk: session=%s index=%d: %v",
			sessionKey, chunkIndex, err)
		c.JSON(http.StatusInternalServerError, videoChunkResponse{Error: "failed to persist chunk"})
		return
	}

	if err := api.store.Journal(c.Request.Context(), &UploadRecord{
		SessionKey: sessionKey,
		Kind:       KindVideo,
		ChunkIndex: chunkIndex,
		IsFinal:    isFinal,
		SizeBytes:  size,
		Path:       relPath,
	}); err != nil {
		api.logger.Errorf("failed to journal video chunk: session=%s index=%d: %v",
			sessionKey, chunkIndex, err)
		c.JSON(http.StatusInternalServerError, videoChunkResponse{Error: "failed to journal chunk"})
		return
	}

	api.logger.Infof("video chunk received: session=%s index=%d final=%v size=%d",
		sessionKey, chunkIndex, isFinal, size)
	c.JSON(http.StatusOK, videoChunkResponse{Success: true, RecordingPath: relPath})
}

// Audio accepts the whole filtered audio track with both anchor timestamps.
// The track is written in full, replacing any earlier attempt for the same
// session.
func (api *uploadApi) Audio(c *gin.Context) {
	sessionKey := c.PostForm("session_key")
	if !sessionKeyPattern.MatchString(sessionKey) {
		c.JSON(http.StatusBadRequest, audioResponse{Status: "error", Error: "invalid session_key"})
		return
	}

	audioTS, err := strconv.ParseFloat(c.PostForm("audio_start_timestamp"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, audioResponse{Status: "error", Error: "invalid audio_start_timestamp"})
		return
	}

	var videoTS *float64
	if raw := c.PostForm("video_start_timestamp"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, audioResponse{Status: "error", Error: "invalid video_start_timestamp"})
			return
		}
		videoTS = &v
	}

	file, err := c.FormFile("audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, audioResponse{Status: "error", Error: "missing audio_file"})
		return
	}

	relPath := filepath.Join(sessionKey, fmt.Sprintf("interview_audio_%s.webm", sessionKey))
	size, err := api.replaceUpload(file, relPath)
	if err != nil {
		api.logger.Errorf("failed to persist audio track: session=%s: %v", sessionKey, err)
		c.JSON(http.StatusInternalServerError, audioResponse{Status: "error", Error: "failed to persist audio"})
		return
	}

	if err := api.store.Journal(c.Request.Context(), &UploadRecord{
		SessionKey:          sessionKey,
		Kind:                KindAudio,
		SizeBytes:           size,
		Path:                relPath,
		AudioStartTimestamp: &audioTS,
		VideoStartTimestamp: videoTS,
	}); err != nil {
		api.logger.Errorf("failed to journal audio track: session=%s: %v", sessionKey, err)
		c.JSON(http.StatusInternalServerError, audioResponse{Status: "error", Error: "failed to journal audio"})
		return
	}

	api.logger.Infof("audio track received: session=%s size=%d audioTs=%.6f", sessionKey, size, audioTS)
	c.JSON(http.StatusOK, audioResponse{Status: "success", AudioPath: relPath})
}

// appendUpload appends the uploaded part to the file at relPath under the
// data dir, creating the session directory on first use.
func (api *uploadApi) appendUpload(file *multipart.FileHeader, relPath string) (int64, error) {
	return api.writeUpload(file, relPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

// replaceUpload writes the uploaded part as the full file content.
func (api *uploadApi) replaceUpload(file *multipart.FileHeader, relPath string) (int64, error) {
	return api.writeUpload(file, relPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

func (api *uploadApi) writeUpload(file *multipart.FileHeader, relPath string, flag int) (int64, error) {
	target := filepath.Join(api.config.DataDir, relPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create session directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open uploaded part: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, flag, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", target, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return size, nil
}
