// Package storage persists the subscriber list and the update watermark.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
)

const (
	subscribersKey = "chat_ids.txt"
	watermarkKey   = "update_id.txt"
)

// Store keeps state as small text objects, either in a local directory or in
// a Cloud Storage bucket. A missing or corrupt object reads as the default
// value, so a fresh deployment starts empty.
type Store struct {
	client    *storage.Client
	logger    *slog.Logger
	localPath string
	bucket    string
}

// New creates a store. When localPath is set the bucket is ignored.
func New(client *storage.Client, bucket string, localPath string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		logger:    logger,
		localPath: localPath,
		bucket:    bucket,
	}
}

// LoadSubscribers returns the stored subscriber ids in stored order.
func (s *Store) LoadSubscribers(ctx context.Context) ([]int64, error) {
	data, found, err := s.read(ctx, subscribersKey)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Info("No subscriber list stored yet, starting empty", "key", subscribersKey)
		return nil, nil
	}

	ids, err := ParseSubscribers(data)
	if err != nil {
		s.logger.Warn("Corrupt subscriber list, starting empty", "key", subscribersKey, "error", err)
		return nil, nil
	}
	return ids, nil
}

// SaveSubscribers replaces the stored subscriber list.
func (s *Store) SaveSubscribers(ctx context.Context, ids []int64) error {
	if err := s.write(ctx, subscribersKey, FormatSubscribers(ids)); err != nil {
		return err
	}
	s.logger.Debug("Subscribers saved", "count", len(ids))
	return nil
}

// LoadWatermark returns the stored update watermark, or 0.
func (s *Store) LoadWatermark(ctx context.Context) (int64, error) {
	data, found, err := s.read(ctx, watermarkKey)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	id, err := ParseWatermark(data)
	if err != nil {
		s.logger.Warn("Corrupt update watermark, starting from zero", "key", watermarkKey, "error", err)
		return 0, nil
	}
	return id, nil
}

// SaveWatermark stores the update watermark.
func (s *Store) SaveWatermark(ctx context.Context, id int64) error {
	if err := s.write(ctx, watermarkKey, FormatWatermark(id)); err != nil {
		return err
	}
	s.logger.Debug("Update watermark saved", "update_id", id)
	return nil
}

// read fetches an object. found is false when it does not exist.
func (s *Store) read(ctx context.Context, key string) (data []byte, found bool, err error) {
	// Local filesystem storage
	if s.localPath != "" {
		filePath := filepath.Join(s.localPath, key)
		data, err = os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("read from local storage: %w", err)
		}
		return data, true, nil
	}

	// Cloud Storage with retry logic for reliability
	found = true
	err = retry.Do(
		func() error {
			r, openErr := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
			if openErr != nil {
				if errors.Is(openErr, storage.ErrObjectNotExist) {
					found = false
					return nil
				}
				return fmt.Errorf("open storage reader: %w", openErr)
			}
			defer func() {
				if closeErr := r.Close(); closeErr != nil {
					s.logger.Warn("Failed to close storage reader", "error", closeErr)
				}
			}()

			var readErr error
			data, readErr = io.ReadAll(r)
			if readErr != nil {
				return fmt.Errorf("read from storage: %w", readErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying load operation after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return nil, false, fmt.Errorf("load after retries: %w", err)
	}
	return data, found, nil
}

// write replaces an object.
func (s *Store) write(ctx context.Context, key string, data []byte) error {
	// Local filesystem storage; rename keeps readers from seeing half a file.
	if s.localPath != "" {
		filePath := filepath.Join(s.localPath, key)
		tmp, err := os.CreateTemp(s.localPath, key+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write to local storage: %w", err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("close temp file: %w", err)
		}
		if err := os.Rename(tmp.Name(), filePath); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("replace %s: %w", key, err)
		}
		return nil
	}

	// Cloud Storage with retry logic for reliability
	err := retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			w.ContentType = "text/plain; charset=utf-8"
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying save operation after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}
	return nil
}
