// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
)

// DeadLetterSink archives a record that failed conversion. The baseline
// behaviour is log-and-drop (offset not tracked, so commit progress is
// unaffected); a configured DeadLetterSink adds an optional archival path
// alongside that log entry without changing commit semantics.
type DeadLetterSink interface {
	Archive(ctx context.Context, rec Record, cause error) error
}

// noopDeadLetterSink is used when no bucket is configured, leaving a
// conversion failure as a log entry only.
type noopDeadLetterSink struct{}

func (noopDeadLetterSink) Archive(context.Context, Record, error) error { return nil }

// NoDeadLetter is the default [DeadLetterSink]: it does nothing, leaving
// conversion failures as a log entry only.
var NoDeadLetter DeadLetterSink = noopDeadLetterSink{}

// minioDeadLetterSink archives the raw record value as an object keyed
// by topic/partition/offset in an S3-compatible bucket.
type minioDeadLetterSink struct {
	mc     *minio.Client
	bucket string
	log    *slog.Logger
}

// NewMinioDeadLetterSink constructs a [DeadLetterSink] backed by an
// existing MinIO client and bucket. The bucket is assumed to already
// exist; this module never performs bucket administration.
func NewMinioDeadLetterSink(mc *minio.Client, bucket string) DeadLetterSink {
	return &minioDeadLetterSink{mc: mc, bucket: bucket, log: logger()}
}

func (s *minioDeadLetterSink) Archive(ctx context.Context, rec Record, cause error) error {
	objectKey := fmt.Sprintf("%s/%d/%d", rec.Topic, rec.Partition, rec.Offset)

	_, err := s.mc.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(rec.Value), int64(len(rec.Value)), minio.PutObjectOptions{
		UserMetadata: map[string]string{
			"x-bridge-cause": cause.Error(),
		},
	})
	if err != nil {
		s.log.Error("failed to archive dead-lettered record",
			TopicAttr(rec.Topic), PartitionAttr(rec.Partition), OffsetAttr(rec.Offset),
			slog.Any("error", err))
		return err
	}
	return nil
}
