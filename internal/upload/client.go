// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_upload

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hiresightai/capture/pkg/commons"
)

// Client posts capture payloads as HTTP multipart requests. Each capture
// unit owns its own call pattern; the client itself is stateless and safe
// for concurrent use.
type Client struct {
	logger commons.Logger
	http   *resty.Client
}

func NewClient(logger commons.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		logger: logger,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

type videoChunkResponse struct {
	Success       bool   `json:"success"`
	RecordingPath string `json:"recording_path"`
}

// UploadVideoChunk posts one batch of video chunks. A missing path on a
// successful final response is an anomaly, reported distinctly from a
// transport failure so callers can tell "server rejected" from "server
// misbehaved".
func (c *Client) UploadVideoChunk(ctx context.Context, req VideoChunkRequest) Result {
	var body videoChunkResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("video_chunk",
			fmt.Sprintf("interview_video_%s.webm", req.SessionKey),
			bytes.NewReader(req.Payload)).
		SetFormData(map[string]string{
			"session_key": req.SessionKey,
			"chunk_index": strconv.Itoa(req.ChunkIndex),
			"is_final":    strconv.FormatBool(req.IsFinal),
		}).
		SetResult(&body).
		Post(VideoChunkPath)
	if err != nil {
		c.logger.Warnf("video chunk upload transport failure: session=%s index=%d final=%v: %v",
			req.SessionKey, req.ChunkIndex, req.IsFinal, err)
		return Result{Err: err}
	}
	if !resp.IsSuccess() {
		return Result{Err: fmt.Errorf("video chunk upload: unexpected status %s", resp.Status())}
	}
	if !body.Success {
		return Result{Err: fmt.Errorf("video chunk upload rejected: session=%s index=%d",
			req.SessionKey, req.ChunkIndex)}
	}
	if req.IsFinal && body.RecordingPath == "" {
		c.logger.Warnw("video upload anomaly: success without recording path",
			"session", req.SessionKey, "index", req.ChunkIndex)
		return Result{Anomaly: true}
	}
	return Result{Success: true, Path: body.RecordingPath}
}

type audioResponse struct {
	Status        string `json:"status"`
	AudioPath     string `json:"audio_path"`
	AudioFilePath string `json:"audio_file_path"`
}

// UploadAudio posts the complete filtered audio track with both anchor
// timestamps. The server exposes the stored path under either of two field
// names depending on its version, so both are checked.
func (c *Client) UploadAudio(ctx context.Context, req AudioRequest) Result {
	form := map[string]string{
		"session_key":           req.SessionKey,
		"audio_start_timestamp": strconv.FormatFloat(req.AudioStartTimestamp, 'f', 6, 64),
	}
	if req.VideoStartTimestamp != nil {
		form["video_start_timestamp"] = strconv.FormatFloat(*req.VideoStartTimestamp, 'f', 6, 64)
	}

	var body audioResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("audio_file",
			fmt.Sprintf("interview_audio_%s.webm", req.SessionKey),
			bytes.NewReader(req.Payload)).
		SetFormData(form).
		SetResult(&body).
		Post(AudioPath)
	if err != nil {
		c.logger.Warnf("audio upload transport failure: session=%s: %v", req.SessionKey, err)
		return Result{Err: err}
	}
	if !resp.IsSuccess() {
		return Result{Err: fmt.Errorf("audio upload: unexpected status %s", resp.Status())}
	}
	if body.Status != "success" {
		return Result{Err: fmt.Errorf("audio upload rejected: session=%s status=%q",
			req.SessionKey, body.Status)}
	}

	path := body.AudioPath
	if path == "" {
		path = body.AudioFilePath
	}
	if path == "" {
		c.logger.Warnw("audio upload anomaly: success without audio path",
			"session", req.SessionKey)
		return Result{Anomaly: true}
	}
	return Result{Success: true, Path: path}
}
