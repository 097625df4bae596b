// Package document hosts the request-facing conversion service: it
// gates concurrent conversions, deduplicates identical in-flight
// uploads, and logs pipeline outcomes.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/docdrip/docdrip"
	"github.com/docdrip/docdrip/pkg/logger"
)

// Service wraps a conversion engine for use by HTTP handlers.
//
// Conversions are CPU-bound and can block for large documents, so they
// pass through a weighted semaphore: at most maxConcurrent run at a
// time, and waiting respects request cancellation. Identical uploads
// arriving concurrently share one conversion via singleflight, keyed
// on content hash plus filename (the filename participates in format
// detection).
type Service struct {
	engine *docdrip.Engine
	log    logger.Logger
	sem    *semaphore.Weighted
	group  singleflight.Group
}

// New creates a Service around the given engine.
func New(engine *docdrip.Engine, log logger.Logger, maxConcurrent int64) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		engine: engine,
		log:    log,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

// Engine exposes the underlying engine for read-only queries
// (supported formats, limits).
func (s *Service) Engine() *docdrip.Engine { return s.engine }

// Convert runs the full pipeline on one upload. The returned error is
// non-nil only when the request was cancelled before a conversion slot
// became available; pipeline failures are reported inside the Result.
func (s *Service) Convert(ctx context.Context, doc docdrip.UploadedDocument) (*docdrip.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire conversion slot: %w", err)
	}
	defer s.sem.Release(1)

	key := contentKey(doc)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.engine.Process(ctx, doc), nil
	})
	if err != nil {
		return nil, err
	}

	result := v.(*docdrip.Result)
	if shared && result.Err != nil && ctx.Err() == nil &&
		(errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded)) {
		// A shared flight runs under the initiating request's context.
		// If that request disconnected, its cancellation must not fail
		// this one: convert again under our own live context.
		result = s.engine.Process(ctx, doc)
	}
	fields := []logger.Field{
		logger.String("filename", doc.Filename),
		logger.String("format", string(result.Format)),
		logger.Int64("size_bytes", result.Metadata.SizeBytes),
		logger.Int64("duration_ms", result.Metadata.DurationMS),
		logger.Bool("deduplicated", shared),
	}
	if result.Err != nil {
		s.log.Warn("conversion failed", append(fields, logger.Error(result.Err))...)
	} else {
		s.log.Info("conversion completed", fields...)
	}

	return result, nil
}

// Validate checks an upload without converting it.
func (s *Service) Validate(data []byte, filename string) docdrip.ValidationResult {
	return s.engine.Validate(data, filename)
}

func contentKey(doc docdrip.UploadedDocument) string {
	sum := sha256.Sum256(doc.Data)
	return hex.EncodeToString(sum[:]) + "|" + doc.Filename
}
