// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_sink

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload kind constants.
const (
	KindVideo = "video" // incremental batched video chunk upload
	KindAudio = "audio" // single whole-track audio upload
)

// UploadRecord journals one received upload. One row per accepted request,
// never mutated afterwards: the journal is the sink's audit trail for
// debugging chunk cadence, anchor values and partial-failure recovery against
// a real capture agent.
//
// Stored in SQLite (upload_records table).
type UploadRecord struct {
	Id uint64 `json:"id" gorm:"primaryKey;autoIncrement"`

	// ReceiptID is the sink-assigned identifier returned to operators when
	// tracing a specific upload through logs.
	ReceiptID  string `json:"receiptId" gorm:"column:receipt_id;type:varchar(36);not null;uniqueIndex"`
	SessionKey string `json:"sessionKey" gorm:"column:session_key;type:varchar(128);not null;index"`
	Kind       string `json:"kind" gorm:"column:kind;type:varchar(10);not null"`

	// ChunkIndex and IsFinal only carry meaning for video uploads; audio
	// rows leave them zero-valued.
	ChunkIndex int  `json:"chunkIndex" gorm:"column:chunk_index;type:integer;not null;default:0"`
	IsFinal    bool `json:"isFinal" gorm:"column:is_final;not null;default:false"`

	SizeBytes int64  `json:"sizeBytes" gorm:"column:size_bytes;type:bigint;not null"`
	Path      string `json:"path" gorm:"column:path;type:text;not null"`

	// Anchor timestamps as transmitted by the capture agent, epoch seconds.
	// Null when the request carried none.
	AudioStartTimestamp *float64 `json:"audioStartTimestamp" gorm:"column:audio_start_timestamp;type:real"`
	VideoStartTimestamp *float64 `json:"videoStartTimestamp" gorm:"column:video_start_timestamp;type:real"`

	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;<-:create"`
}

func (UploadRecord) TableName() string {
	return "upload_records"
}

func (r *UploadRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ReceiptID == "" {
		r.ReceiptID = uuid.New().String()
	}
	if r.CreatedDate.IsZero() {
		r.CreatedDate = time.Now()
	}
	return nil
}
