package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nuitsjp/teams-board/internal/domain/board"
	"github.com/nuitsjp/teams-board/internal/domain/report"
	"github.com/nuitsjp/teams-board/internal/storage"
	"github.com/nuitsjp/teams-board/internal/writer"
)

// Service hosts the operations the dashboard UI invokes. Every mutation runs
// the same protocol: the aggregate edit executes inside the sequencer's
// index updater, against the index fetched from the store immediately before
// the write. There is no other defense against concurrent editors; an edit
// that cannot be applied cleanly declines the write instead of guessing.
type Service struct {
	seq    *writer.Sequencer
	store  storage.ObjectStore
	source storage.IndexSource
	cache  *storage.CachedSource
	logger *slog.Logger
}

// NewService creates a dashboard service. The source must be the uncached
// view of the store; the cache serves reads only.
func NewService(seq *writer.Sequencer, store storage.ObjectStore, source storage.IndexSource, cache *storage.CachedSource, logger *slog.Logger) *Service {
	return &Service{seq: seq, store: store, source: source, cache: cache, logger: logger}
}

// Index returns the aggregate for rendering, served through the read cache.
func (s *Service) Index(ctx context.Context) (*board.Index, error) {
	return s.cache.Fetch(ctx)
}

// Session loads one immutable session revision.
func (s *Service) Session(ctx context.Context, ref string) (*board.SessionRecord, error) {
	sessionID, revision, err := board.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(ctx, storage.SessionPath(sessionID, revision))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("reading session %s: %w", ref, err)
	}
	var rec board.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", ref, err)
	}
	return &rec, nil
}

// ImportResult reports one import: the new session reference, row-level
// parse warnings, and whether the index write was abandoned on conflict. On
// conflict LatestVersion carries the version of the index that moved, so the
// caller can refresh before re-importing.
type ImportResult struct {
	Ref           string
	Warnings      []string
	Conflict      bool
	LatestVersion int
}

// Import parses an uploaded attendance export and persists it: the verbatim
// source bytes first, then the revision-0 session record, then the index
// with the session merged in. The session record fixes member ids resolved
// against the index version it was merged with, so if the freshly fetched
// index has moved past that version the index write is declined and the
// caller must re-import.
func (s *Service) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	parsed, warnings, err := report.Parse(data)
	if err != nil {
		return nil, err
	}

	base, err := s.fetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	merged, rec, mergeWarnings := board.Merge(base, parsed)
	warnings = append(warnings, mergeWarnings...)

	recJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session record: %w", err)
	}

	ref := board.FormatRef(parsed.SessionID, 0)
	conflict := false
	latestVersion := 0
	out := s.seq.Execute(ctx, writer.Request{
		Raw: &writer.Item{
			Path:        storage.SourcePath(parsed.SessionID),
			Content:     data,
			ContentType: storage.ContentTypeCSV,
		},
		Items: []writer.Item{{
			Path:        storage.SessionPath(parsed.SessionID, 0),
			Content:     recJSON,
			ContentType: storage.ContentTypeJSON,
		}},
		UpdateIndex: func(latest *board.Index, items []writer.Result) *board.Index {
			if !anySucceeded(items) {
				return nil
			}
			if latest.Version != base.Version {
				conflict = true
				latestVersion = latest.Version
				s.logger.Warn("import conflict, index moved during write",
					"mergedVersion", base.Version, "latestVersion", latest.Version)
				return nil
			}
			return merged
		},
	})

	if conflict {
		return &ImportResult{Ref: ref, Warnings: warnings, Conflict: true, LatestVersion: latestVersion}, nil
	}
	if !out.AllSucceeded {
		return nil, ErrWriteFailed
	}

	s.cache.Invalidate()
	s.logger.Info("session imported", "ref", ref, "group", parsed.GroupName, "attendees", len(parsed.Attendances))
	return &ImportResult{Ref: ref, Warnings: warnings}, nil
}

// RenameGroup changes a group's display name.
func (s *Service) RenameGroup(ctx context.Context, groupID, name string) error {
	return s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		return board.UpdateGroupName(latest, groupID, name)
	})
}

// ConsolidateGroups merges the selected groups into the target. The session
// records referenced by the selection are read first so the merged total can
// be recomputed from the de-duplicated reference set. The lookup is only
// valid for the index version it was built against, so the updater declines
// when the freshly fetched index has moved; a ref added in between would
// otherwise survive the union while contributing nothing to the total.
func (s *Service) ConsolidateGroups(ctx context.Context, targetID string, selected []string) error {
	base, err := s.fetchLatest(ctx)
	if err != nil {
		return err
	}
	refDurations, err := s.collectRefDurations(ctx, base, selected)
	if err != nil {
		return err
	}

	var opErr error
	conflict := false
	out := s.seq.Execute(ctx, writer.Request{
		UpdateIndex: func(latest *board.Index, _ []writer.Result) *board.Index {
			if latest.Version != base.Version {
				conflict = true
				s.logger.Warn("consolidation conflict, index moved during write",
					"lookupVersion", base.Version, "latestVersion", latest.Version)
				return nil
			}
			updated, err := board.MergeGroups(latest, targetID, selected, refDurations)
			if err != nil {
				opErr = err
				return nil
			}
			return updated
		},
	})
	if opErr != nil {
		return opErr
	}
	if conflict {
		return ErrConflict
	}
	if !out.AllSucceeded {
		return ErrWriteFailed
	}
	s.cache.Invalidate()
	return nil
}

// RemoveSession detaches one session revision from a group, rolling its
// durations out of the group and every affected member.
func (s *Service) RemoveSession(ctx context.Context, groupID, ref string) error {
	rec, err := s.Session(ctx, ref)
	if err != nil {
		return err
	}
	return s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		return board.RemoveSessionFromGroup(latest, groupID, ref, rec)
	})
}

// EditSession appends a new revision of a session with an updated title or
// instructor list and repoints the aggregate's references to it. The prior
// revision object is left in place untouched.
func (s *Service) EditSession(ctx context.Context, ref string, opts board.RevisionOptions) (string, error) {
	rec, err := s.Session(ctx, ref)
	if err != nil {
		return "", err
	}
	next, newRef, err := board.NewRevision(ref, rec, opts)
	if err != nil {
		return "", err
	}
	nextJSON, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding session record: %w", err)
	}

	var opErr error
	out := s.seq.Execute(ctx, writer.Request{
		Items: []writer.Item{{
			Path:        storage.SessionPath(next.SessionID, next.Revision),
			Content:     nextJSON,
			ContentType: storage.ContentTypeJSON,
		}},
		UpdateIndex: func(latest *board.Index, items []writer.Result) *board.Index {
			if !anySucceeded(items) {
				return nil
			}
			updated, err := board.ApplySessionRevision(latest, ref, newRef, rec.Instructors, next.Instructors)
			if err != nil {
				opErr = err
				return nil
			}
			return updated
		},
	})
	if opErr != nil {
		// The session vanished from the latest index between the read and
		// the updater: a concurrent editor removed it.
		if errors.Is(opErr, board.ErrRefNotFound) {
			return "", ErrConflict
		}
		return "", opErr
	}
	if !out.AllSucceeded {
		return "", ErrWriteFailed
	}
	if !wroteIndex(out.Results) {
		return "", ErrConflict
	}

	s.cache.Invalidate()
	s.logger.Info("session revision created", "ref", newRef)
	return newRef, nil
}

// AddMember creates a member with zero totals, returning its id.
func (s *Service) AddMember(ctx context.Context, name string) (string, error) {
	var id string
	err := s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		updated, memberID, err := board.AddMember(latest, name)
		id = memberID
		return updated, err
	})
	return id, err
}

// AddOrganizer creates an organizer, returning its id.
func (s *Service) AddOrganizer(ctx context.Context, name string) (string, error) {
	var id string
	err := s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		updated, organizerID, err := board.AddOrganizer(latest, name)
		id = organizerID
		return updated, err
	})
	return id, err
}

// RemoveOrganizer deletes an organizer, clearing it from every group.
func (s *Service) RemoveOrganizer(ctx context.Context, organizerID string) error {
	return s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		return board.RemoveOrganizer(latest, organizerID)
	})
}

// SetGroupOrganizer assigns or clears a group's organizer.
func (s *Service) SetGroupOrganizer(ctx context.Context, groupID string, organizerID *string) error {
	return s.updateIndex(ctx, func(latest *board.Index) (*board.Index, error) {
		return board.UpdateGroupOrganizer(latest, groupID, organizerID)
	})
}

// updateIndex runs one editor operation inside the sequencer's updater so it
// executes against the latest index. A validation error surfaces verbatim; a
// failed index write surfaces ErrWriteFailed.
func (s *Service) updateIndex(ctx context.Context, edit func(latest *board.Index) (*board.Index, error)) error {
	var opErr error
	out := s.seq.Execute(ctx, writer.Request{
		UpdateIndex: func(latest *board.Index, _ []writer.Result) *board.Index {
			updated, err := edit(latest)
			if err != nil {
				opErr = err
				return nil
			}
			return updated
		},
	})
	if opErr != nil {
		return opErr
	}
	if !out.AllSucceeded {
		return ErrWriteFailed
	}
	s.cache.Invalidate()
	return nil
}

// collectRefDurations reads the session records behind every reference held
// by the given groups and maps each reference to its total duration.
func (s *Service) collectRefDurations(ctx context.Context, idx *board.Index, groupIDs []string) (map[string]int, error) {
	durations := map[string]int{}
	for _, groupID := range groupIDs {
		group := findGroup(idx, groupID)
		if group == nil {
			return nil, board.ErrGroupNotFound
		}
		for _, ref := range group.SessionRevisions {
			if _, ok := durations[ref]; ok {
				continue
			}
			rec, err := s.Session(ctx, ref)
			if err != nil {
				return nil, err
			}
			durations[ref] = rec.TotalDurationSeconds()
		}
	}
	return durations, nil
}

func (s *Service) fetchLatest(ctx context.Context) (*board.Index, error) {
	return s.source.Fetch(ctx)
}

func findGroup(idx *board.Index, id string) *board.GroupSummary {
	for i := range idx.Groups {
		if idx.Groups[i].ID == id {
			return &idx.Groups[i]
		}
	}
	return nil
}

func anySucceeded(results []writer.Result) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}

func wroteIndex(results []writer.Result) bool {
	for _, r := range results {
		if r.Path == storage.IndexPath {
			return true
		}
	}
	return false
}
