package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"github.com/vasu-devs/Vaani/pkg/redis"
	"go.uber.org/zap"
)

// ErrRecordNotFound is returned by Get when no record matches the id.
var ErrRecordNotFound = errors.New("call record not found")

// PersistenceError wraps an I/O failure while writing a call record. The
// finalizer only logs it; the record is lost (best-effort durability).
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

const recordIDPrefix = "call-"

// RecordStore assembles and durably persists call records as JSON files, one
// per call, each under a unique name. Writes are write-then-rename so a
// half-written file is never visible. An optional Redis index accelerates
// history listings; it is strictly best-effort and the directory remains the
// source of truth.
type RecordStore struct {
	dir   string
	index *redis.Service

	// serializes id generation so two same-second finalizations cannot race
	// to the same filename
	mu sync.Mutex
}

// NewRecordStore creates the store, making the records directory if needed.
// index may be nil to run without Redis.
func NewRecordStore(dir string, index *redis.Service) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PersistenceError{Op: "create records dir", Err: err}
	}
	return &RecordStore{dir: dir, index: index}, nil
}

// Persist filters and labels the transcript, assembles the terminal call
// record and writes it atomically. Returns the generated record id.
func (s *RecordStore) Persist(ctx context.Context, cfg domain.CallConfiguration, entries []domain.TranscriptEntry, assessment domain.RiskAssessment) (string, error) {
	transcript := make([]domain.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if e.Role == domain.RoleSystem {
			continue
		}
		e.Speaker = domain.SpeakerFor(e.Role, cfg)
		if e.CapturedAt.IsZero() {
			e.CapturedAt = time.Now()
		}
		transcript = append(transcript, e)
	}

	s.mu.Lock()
	stamp := time.Now().Format("20060102_150405")
	path := s.pathForStamp(stamp)
	if _, err := os.Stat(path); err == nil {
		// Another record landed in the same second; extend the id rather
		// than silently overwrite.
		stamp = fmt.Sprintf("%s-%s", stamp, uuid.NewString()[:8])
		path = s.pathForStamp(stamp)
	}
	id := recordIDPrefix + stamp

	record := domain.CallRecord{
		ID:           id,
		Timestamp:    stamp,
		Metadata:     cfg,
		Transcript:   transcript,
		RiskAnalysis: assessment,
		RiskScore:    assessment.RiskScore,
		Status:       domain.RecordStatusCompleted,
	}

	err := s.writeAtomic(path, record)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	s.indexRecord(ctx, record)

	logger.Base().Info("call record persisted",
		zap.String("record_id", id),
		zap.String("path", path),
		zap.Int("transcript_entries", len(transcript)))
	return id, nil
}

// List returns record summaries, newest first. The Redis index is consulted
// first when configured; any index failure falls back to a directory scan.
func (s *RecordStore) List(ctx context.Context) ([]domain.CallSummary, error) {
	if summaries, ok := s.listFromIndex(ctx); ok {
		return summaries, nil
	}
	return s.listFromDir()
}

// Get loads one full record by id.
func (s *RecordStore) Get(ctx context.Context, id string) (domain.CallRecord, error) {
	stamp := strings.TrimPrefix(id, recordIDPrefix)
	path := s.pathForStamp(stamp)

	if _, err := os.Stat(path); err != nil {
		// Tolerate partial ids the way the history UI sends them.
		matches, _ := filepath.Glob(filepath.Join(s.dir, fmt.Sprintf("*%s*.json", stamp)))
		if len(matches) == 0 {
			return domain.CallRecord{}, ErrRecordNotFound
		}
		path = matches[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CallRecord{}, &PersistenceError{Op: "read record", Err: err}
	}
	var record domain.CallRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.CallRecord{}, &PersistenceError{Op: "decode record", Err: err}
	}
	return record, nil
}

func (s *RecordStore) pathForStamp(stamp string) string {
	return filepath.Join(s.dir, fmt.Sprintf("log_%s.json", stamp))
}

// writeAtomic marshals the record and writes it with write-then-rename so
// readers never observe a partial file.
func (s *RecordStore) writeAtomic(path string, record domain.CallRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode record", Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &PersistenceError{Op: "write record", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &PersistenceError{Op: "rename record", Err: err}
	}
	return nil
}

// indexRecord pushes a summary into the Redis index. Best-effort only.
func (s *RecordStore) indexRecord(ctx context.Context, record domain.CallRecord) {
	if s.index == nil {
		return
	}

	summary := summaryOf(record)
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}

	key := s.index.GenerateKey(redis.CALL_RECORD, record.ID)
	if err := s.index.SetValue(ctx, key, string(data), 0); err != nil {
		logger.Base().Warn("failed to cache record summary", zap.String("record_id", record.ID), zap.Error(err))
		return
	}
	if err := s.index.IndexAdd(ctx, string(redis.CALL_INDEX), float64(time.Now().UnixNano()), record.ID); err != nil {
		logger.Base().Warn("failed to index record", zap.String("record_id", record.ID), zap.Error(err))
	}
}

func (s *RecordStore) listFromIndex(ctx context.Context) ([]domain.CallSummary, bool) {
	if s.index == nil {
		return nil, false
	}

	ids, err := s.index.IndexRevRange(ctx, string(redis.CALL_INDEX), 0, -1)
	if err != nil || len(ids) == 0 {
		return nil, false
	}

	summaries := make([]domain.CallSummary, 0, len(ids))
	for _, id := range ids {
		data, err := s.index.GetValue(ctx, s.index.GenerateKey(redis.CALL_RECORD, id))
		if err != nil {
			continue
		}
		var summary domain.CallSummary
		if err := json.Unmarshal([]byte(data), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, true
}

func (s *RecordStore) listFromDir() ([]domain.CallSummary, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "log_*.json"))
	if err != nil {
		return nil, &PersistenceError{Op: "list records", Err: err}
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: path, modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	summaries := make([]domain.CallSummary, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			continue
		}
		var record domain.CallRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		summaries = append(summaries, summaryOf(record))
	}
	return summaries, nil
}

func summaryOf(record domain.CallRecord) domain.CallSummary {
	debtor := record.Metadata.DebtorName
	if debtor == "" {
		debtor = "Unknown"
	}
	return domain.CallSummary{
		ID:         record.ID,
		Timestamp:  record.Timestamp,
		RiskScore:  record.RiskScore,
		Status:     record.Status,
		DebtorName: debtor,
	}
}
