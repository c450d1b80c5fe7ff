// Package storage persists per-team bot state (command history) in a JSON
// datastore.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/keshon/datastore"
	"github.com/rs/zerolog"
)

// DefaultHistoryLimit is used when New is given a non-positive limit.
const DefaultHistoryLimit = 20

// noTeam is the record key for events that carry no team id.
const noTeam = "_"

// saveInterval is how often the datastore flushes to disk between Close calls.
const saveInterval = 30 * time.Second

type Storage struct {
	ds     *datastore.DataStore
	cancel context.CancelFunc
	limit  int
	mu     sync.Mutex
}

// CommandRecord is one executed command.
type CommandRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	TeamName    string    `json:"team_name,omitempty"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Command     string    `json:"command"`
	Text        string    `json:"text"`
	Datetime    time.Time `json:"datetime"`
}

// Record is everything stored for one team.
type Record struct {
	CommandHistory []CommandRecord `json:"cmd_history"`
}

// New opens (or creates) the datastore at filePath. History per team is capped
// at limit entries. The datastore flushes in the background until ctx is done
// or Close is called.
func New(ctx context.Context, filePath string, limit int, logger zerolog.Logger) (*Storage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsLog := slog.New(slog.NewTextHandler(logger.With().Str("component", "datastore").Logger(), nil))

	ctx, cancel := context.WithCancel(ctx)
	ds, err := datastore.New(ctx, filePath,
		datastore.WithLogger(dsLog),
		datastore.WithSaveInterval(saveInterval),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open datastore %s: %w", filePath, err)
	}
	return &Storage{ds: ds, cancel: cancel, limit: limit}, nil
}

// Close stops background saving and writes the store to disk.
func (s *Storage) Close() error {
	s.cancel()
	return s.ds.Close()
}

// getOrCreateRecord returns the team record. Caller holds s.mu.
func (s *Storage) getOrCreateRecord(teamID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(key(teamID), &record); err != nil {
		return nil, fmt.Errorf("load history for %q: %w", teamID, err)
	}
	if record.CommandHistory == nil {
		record.CommandHistory = []CommandRecord{}
	}
	return &record, nil
}

// AppendCommand records an executed command for a team, keeping only the most
// recent entries.
func (s *Storage) AppendCommand(teamID string, rec CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord(teamID)
	if err != nil {
		return err
	}
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now().UTC()
	}
	record.CommandHistory = append(record.CommandHistory, rec)
	if len(record.CommandHistory) > s.limit {
		record.CommandHistory = record.CommandHistory[len(record.CommandHistory)-s.limit:]
	}
	if err := s.ds.Set(key(teamID), record); err != nil {
		return fmt.Errorf("save history for %q: %w", teamID, err)
	}
	return nil
}

// CommandHistory returns the recorded commands for a team, oldest first.
func (s *Storage) CommandHistory(teamID string) ([]CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord(teamID)
	if err != nil {
		return nil, err
	}
	return record.CommandHistory, nil
}

// ClearHistory forgets every command recorded for a team.
func (s *Storage) ClearHistory(teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ds.Delete(key(teamID)); err != nil {
		return fmt.Errorf("clear history for %q: %w", teamID, err)
	}
	return nil
}

func key(teamID string) string {
	if teamID == "" {
		return noTeam
	}
	return "team:" + teamID
}
