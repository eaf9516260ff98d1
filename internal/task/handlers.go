package task

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/mcp-worker/internal/redact"
)

// HandlerConfig holds settings for the built-in handlers
type HandlerConfig struct {
	// DataDir is the root directory data cleanup tasks operate under
	DataDir string

	// VectorIndexDelay is the simulated indexing time per task
	VectorIndexDelay time.Duration

	// ModelCacheDelay is the simulated caching time per task
	ModelCacheDelay time.Duration
}

// DefaultHandlerConfig returns a HandlerConfig with reasonable defaults
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		DataDir:          "/data",
		VectorIndexDelay: time.Second,
		ModelCacheDelay:  500 * time.Millisecond,
	}
}

// BuiltinHandlers returns the handler table for the built-in task types.
// Pass it to NewRegistry, optionally after adding more handlers.
func BuiltinHandlers(config HandlerConfig, recorder Recorder, logger *slog.Logger) map[Type]Handler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return map[Type]Handler{
		TypeVectorIndex: &VectorIndexHandler{delay: config.VectorIndexDelay, logger: logger},
		TypeModelCache:  &ModelCacheHandler{delay: config.ModelCacheDelay, logger: logger},
		TypeDataCleanup: &DataCleanupHandler{dataDir: config.DataDir, logger: logger},
		TypeHealthCheck: &HealthCheckHandler{recorder: recorder, logger: logger},
	}
}

// VectorIndexHandler indexes documents into a vector collection.
type VectorIndexHandler struct {
	delay  time.Duration
	logger *slog.Logger
}

// Handle implements Handler.
func (h *VectorIndexHandler) Handle(ctx context.Context, t Task) (bool, error) {
	p, ok := t.Payload.(VectorIndexPayload)
	if !ok {
		return false, fmt.Errorf("%w: vector index task carries %T", ErrInvalidPayload, t.Payload)
	}

	h.logger.Info("processing vector index task",
		"task_id", t.ID,
		"collection", p.Collection,
		"documents", len(p.Documents))

	if err := simulateWork(ctx, h.delay); err != nil {
		h.logger.Error("vector index task failed", "task_id", t.ID, redact.ErrorAttr(err))
		return false, nil
	}

	h.logger.Info("vector index task completed", "task_id", t.ID)
	return true, nil
}

// ModelCacheHandler warms the local cache for a model.
type ModelCacheHandler struct {
	delay  time.Duration
	logger *slog.Logger
}

// Handle implements Handler.
func (h *ModelCacheHandler) Handle(ctx context.Context, t Task) (bool, error) {
	p, ok := t.Payload.(ModelCachePayload)
	if !ok {
		return false, fmt.Errorf("%w: model cache task carries %T", ErrInvalidPayload, t.Payload)
	}

	h.logger.Info("processing model cache task", "task_id", t.ID, "model_id", p.ModelID)

	if err := simulateWork(ctx, h.delay); err != nil {
		h.logger.Error("model cache task failed", "task_id", t.ID, redact.ErrorAttr(err))
		return false, nil
	}

	h.logger.Info("model cache task completed", "task_id", t.ID)
	return true, nil
}

// DataCleanupHandler removes stale regular files from a directory below DataDir.
// Subdirectories are left alone.
type DataCleanupHandler struct {
	dataDir string
	logger  *slog.Logger
}

// NewDataCleanupHandler creates a cleanup handler rooted at dataDir.
func NewDataCleanupHandler(dataDir string, logger *slog.Logger) *DataCleanupHandler {
	return &DataCleanupHandler{dataDir: dataDir, logger: logger}
}

// Handle implements Handler. A missing target directory counts as clean.
// Any file that could not be removed makes the attempt fail so it is retried.
func (h *DataCleanupHandler) Handle(ctx context.Context, t Task) (bool, error) {
	p, ok := t.Payload.(DataCleanupPayload)
	if !ok {
		return false, fmt.Errorf("%w: data cleanup task carries %T", ErrInvalidPayload, t.Payload)
	}
	if !filepath.IsLocal(p.Target) {
		return false, fmt.Errorf("%w: %q", ErrUnsafeTarget, p.Target)
	}

	dir := filepath.Join(h.dataDir, p.Target)
	cutoff := time.Now().Add(-time.Duration(p.OlderThan))
	logger := h.logger.With("task_id", t.ID, "dir", dir)
	logger.Info("processing data cleanup task", "older_than", time.Duration(p.OlderThan))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("data cleanup target does not exist")
			return true, nil
		}
		logger.Error("data cleanup task failed", redact.ErrorAttr(err))
		return false, nil
	}

	removed, failed := 0, 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			logger.Warn("data cleanup interrupted", "removed", removed)
			return false, nil
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			failed++
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove file", "file", entry.Name(), redact.ErrorAttr(err))
			failed++
			continue
		}
		removed++
	}

	logger.Info("data cleanup task completed", "removed", removed, "failed", failed)
	return failed == 0, nil
}

// HealthCheckHandler marks the worker healthy each time it runs.
type HealthCheckHandler struct {
	recorder Recorder
	logger   *slog.Logger
}

// Handle implements Handler.
func (h *HealthCheckHandler) Handle(_ context.Context, t Task) (bool, error) {
	h.logger.Debug("processing health check task", "task_id", t.ID)
	h.recorder.SetHealthy(true)
	return true, nil
}

func simulateWork(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
