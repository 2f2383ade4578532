package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/adperf-monitor/internal/config"
	"github.com/ignite/adperf-monitor/internal/optimizer"
	"github.com/ignite/adperf-monitor/internal/pkg/logger"
)

// Storage holds audience overlap data and the action audit trail. Overlap
// pairs are computed upstream and refreshed wholesale per account; reads
// vastly outnumber writes, hence the RWMutex.
type Storage struct {
	config config.StorageConfig
	mu     sync.RWMutex

	// S3 archiver (optional)
	archiver *Archiver

	// In-memory cache, keyed by account ID
	overlapCache map[string][]optimizer.AudienceOverlapPair
	actionLog    map[string][]ActionRecord
}

// ActionRecord is one audit entry for an executed or ignored recommendation.
type ActionRecord struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	RecommendationID string    `json:"recommendation_id"`
	Action           string    `json:"action"` // "execute" or "ignore"
	Outcome          string    `json:"outcome"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// New creates a new Storage instance
func New(cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{
		config:       cfg,
		overlapCache: make(map[string][]optimizer.AudienceOverlapPair),
		actionLog:    make(map[string][]ActionRecord),
	}

	ctx := context.Background()

	switch cfg.Type {
	case "s3":
		archiver, err := NewArchiver(ctx, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing S3 archiver: %w", err)
		}
		s.archiver = archiver

	case "local":
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		if err := s.loadFromDisk(); err != nil {
			// Not fatal - just log and continue
			logger.Warn("could not load existing storage data", "path", cfg.LocalPath, "error", err)
		}
	}

	return s, nil
}

// SaveOverlapPairs replaces an account's overlap pairs with a fresh snapshot.
func (s *Storage) SaveOverlapPairs(ctx context.Context, accountID string, pairs []optimizer.AudienceOverlapPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overlapCache[accountID] = pairs

	if s.config.Type == "local" {
		return s.saveToFile("overlaps", accountID, pairs)
	}
	return nil
}

// GetOverlapPairs returns an account's current overlap snapshot.
func (s *Storage) GetOverlapPairs(ctx context.Context, accountID string) ([]optimizer.AudienceOverlapPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := s.overlapCache[accountID]
	out := make([]optimizer.AudienceOverlapPair, len(pairs))
	copy(out, pairs)
	return out, nil
}

// FindOverlapPair locates the overlap entry for a specific audience pair,
// in either order.
func (s *Storage) FindOverlapPair(ctx context.Context, accountID, audienceA, audienceB string) (*optimizer.AudienceOverlapPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pair := range s.overlapCache[accountID] {
		if (pair.AudienceA.ID == audienceA && pair.AudienceB.ID == audienceB) ||
			(pair.AudienceA.ID == audienceB && pair.AudienceB.ID == audienceA) {
			p := pair
			return &p, true
		}
	}
	return nil, false
}

// RecordAction appends an audit entry and archives it. Archival is
// best-effort: an archive failure never fails the action that produced it.
func (s *Storage) RecordAction(ctx context.Context, rec ActionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	s.actionLog[rec.AccountID] = append(s.actionLog[rec.AccountID], rec)
	entries := s.actionLog[rec.AccountID]
	s.mu.Unlock()

	if s.config.Type == "local" {
		if err := s.saveToFile("actions", rec.AccountID, entries); err != nil {
			logger.Error("saving action log failed", "account_id", rec.AccountID, "error", err)
		}
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveAction(ctx, rec); err != nil {
			logger.Error("archiving action failed", "action_id", rec.ID, "error", err)
		}
	}
}

// RecentActions returns up to limit of an account's latest audit entries,
// newest last.
func (s *Storage) RecentActions(ctx context.Context, accountID string, limit int) []ActionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.actionLog[accountID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	start := len(entries) - limit
	result := make([]ActionRecord, limit)
	copy(result, entries[start:])
	return result
}

// saveToFile writes data as indented JSON under LocalPath/category/key.json
func (s *Storage) saveToFile(category, key string, data interface{}) error {
	dir := filepath.Join(s.config.LocalPath, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Sanitize key for filename
	safeKey := filepath.Base(key)
	path := filepath.Join(dir, safeKey+".json")

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (s *Storage) loadFromDisk() error {
	// Load overlap snapshots
	overlapsDir := filepath.Join(s.config.LocalPath, "overlaps")
	if entries, err := os.ReadDir(overlapsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(overlapsDir, entry.Name()))
			if err != nil {
				continue
			}
			var pairs []optimizer.AudienceOverlapPair
			if err := json.Unmarshal(data, &pairs); err == nil {
				accountID := entry.Name()[:len(entry.Name())-len(".json")]
				s.overlapCache[accountID] = pairs
			}
		}
	}

	// Load action logs
	actionsDir := filepath.Join(s.config.LocalPath, "actions")
	if entries, err := os.ReadDir(actionsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(actionsDir, entry.Name()))
			if err != nil {
				continue
			}
			var records []ActionRecord
			if err := json.Unmarshal(data, &records); err == nil {
				accountID := entry.Name()[:len(entry.Name())-len(".json")]
				s.actionLog[accountID] = records
			}
		}
	}

	return nil
}
