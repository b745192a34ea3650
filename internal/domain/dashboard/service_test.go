package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/nuitsjp/teams-board/internal/domain/board"
	"github.com/nuitsjp/teams-board/internal/domain/dashboard"
	"github.com/nuitsjp/teams-board/internal/domain/report"
	"github.com/nuitsjp/teams-board/internal/storage"
	"github.com/nuitsjp/teams-board/internal/storage/mocks"
	"github.com/nuitsjp/teams-board/internal/writer"
)

const sampleExport = `1. 要約
会議タイトル	"週次ミーティング での会議"
出席した参加者	1
開始時刻	2023/4/1 10:00:25
終了時刻	2023/4/1 11:00:25

2. 参加者
名前	初回参加	最終退出	会議内持続時間	メール	役割
山田 太郎	2023/4/1 10:00:30	2023/4/1 11:00:25	1 時間	taro@example.com	発表者
`

func encodeExport(t *testing.T, text string) []byte {
	t.Helper()
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(strings.ReplaceAll(text, "\n", "\r\n")))
	require.NoError(t, err)
	return data
}

func seededIndex() *board.Index {
	idx := board.NewIndex()
	idx.Version = 1
	idx.Groups = []board.GroupSummary{{
		ID:                   "g1",
		Name:                 "朝会",
		TotalDurationSeconds: 3600,
		SessionRevisions:     []string{"s1/0"},
	}}
	idx.Members = []board.MemberSummary{{
		ID:                   "m1",
		Name:                 "山田 太郎",
		TotalDurationSeconds: 3600,
		SessionRevisions:     []string{"s1/0"},
	}}
	return idx
}

type fixture struct {
	store   *mocks.ObjectStore
	source  *mocks.IndexSource
	svc     *dashboard.Service
	written map[string][]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &mocks.ObjectStore{}
	source := &mocks.IndexSource{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seq := writer.New(store, source, logger)
	cache := storage.NewCachedSource(source, time.Minute)
	f := &fixture{
		store:   store,
		source:  source,
		svc:     dashboard.NewService(seq, store, source, cache, logger),
		written: map[string][]byte{},
	}
	return f
}

// acceptWrites records every stored object by path.
func (f *fixture) acceptWrites() {
	f.store.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			f.written[args.String(1)] = args.Get(2).([]byte)
		}).
		Return(nil)
}

func (f *fixture) writtenIndex(t *testing.T) *board.Index {
	t.Helper()
	data, ok := f.written[storage.IndexPath]
	require.True(t, ok, "no index object written")
	var idx board.Index
	require.NoError(t, json.Unmarshal(data, &idx))
	return &idx
}

func stubSession(f *fixture, rec *board.SessionRecord) {
	data, _ := json.Marshal(rec)
	f.store.On("Read", mock.Anything, storage.SessionPath(rec.SessionID, rec.Revision)).Return(data, nil)
}

func TestImportMergesIntoIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(board.NewIndex(), nil)

	res, err := f.svc.Import(ctx, encodeExport(t, sampleExport))
	require.NoError(t, err)
	assert.False(t, res.Conflict)
	assert.True(t, strings.HasSuffix(res.Ref, "/0"))
	assert.Empty(t, res.Warnings)

	idx := f.writtenIndex(t)
	require.Len(t, idx.Groups, 1)
	assert.Equal(t, "週次ミーティング", idx.Groups[0].Name)
	assert.Equal(t, 3600, idx.Groups[0].TotalDurationSeconds)
	require.Len(t, idx.Members, 1)
	assert.Equal(t, "山田 太郎", idx.Members[0].Name)
	assert.Equal(t, 1, idx.Version)

	sessionID := strings.TrimSuffix(res.Ref, "/0")
	assert.Contains(t, f.written, storage.SourcePath(sessionID))
	assert.Contains(t, f.written, storage.SessionPath(sessionID, 0))
}

func TestImportDeclinesOnMovedIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()

	base := board.NewIndex()
	moved := board.NewIndex()
	moved.Version = 5
	f.source.On("Fetch", ctx).Return(base, nil).Once()
	f.source.On("Fetch", ctx).Return(moved, nil).Once()

	res, err := f.svc.Import(ctx, encodeExport(t, sampleExport))
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	assert.Equal(t, 5, res.LatestVersion)
	assert.NotContains(t, f.written, storage.IndexPath)
}

func TestImportRawWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.source.On("Fetch", ctx).Return(board.NewIndex(), nil)
	f.store.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom"))

	_, err := f.svc.Import(ctx, encodeExport(t, sampleExport))
	assert.ErrorIs(t, err, dashboard.ErrWriteFailed)
}

func TestImportRejectsMalformedUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Import(ctx, []byte("not an export"))
	assert.ErrorIs(t, err, report.ErrUnrecognizedFormat)
	f.store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenameGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(seededIndex(), nil)

	require.NoError(t, f.svc.RenameGroup(ctx, "g1", "夕会"))

	idx := f.writtenIndex(t)
	assert.Equal(t, "夕会", idx.Groups[0].Name)
	assert.Equal(t, 2, idx.Version)
}

func TestRenameGroupValidationError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.source.On("Fetch", ctx).Return(seededIndex(), nil)

	err := f.svc.RenameGroup(ctx, "g1", "   ")
	assert.ErrorIs(t, err, board.ErrInvalidName)
	f.store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveSessionRollsBackDurations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(seededIndex(), nil)
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})

	require.NoError(t, f.svc.RemoveSession(ctx, "g1", "s1/0"))

	idx := f.writtenIndex(t)
	assert.Equal(t, 0, idx.Groups[0].TotalDurationSeconds)
	assert.Empty(t, idx.Groups[0].SessionRevisions)
	assert.Equal(t, 0, idx.Members[0].TotalDurationSeconds)
}

func TestSessionMissingMapsToNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.On("Read", ctx, storage.SessionPath("s9", 0)).Return(nil, storage.ErrNotFound)

	_, err := f.svc.Session(ctx, "s9/0")
	assert.ErrorIs(t, err, dashboard.ErrSessionNotFound)
}

func TestEditSessionCreatesRevisionAndRepoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(seededIndex(), nil)
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Title:       "朝会",
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})

	title := "振り返り"
	newRef, err := f.svc.EditSession(ctx, "s1/0", board.RevisionOptions{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "s1/1", newRef)

	recData, ok := f.written[storage.SessionPath("s1", 1)]
	require.True(t, ok)
	var rec board.SessionRecord
	require.NoError(t, json.Unmarshal(recData, &rec))
	assert.Equal(t, "振り返り", rec.Title)
	assert.Equal(t, 1, rec.Revision)

	idx := f.writtenIndex(t)
	assert.Equal(t, []string{"s1/1"}, idx.Groups[0].SessionRevisions)
	assert.Equal(t, []string{"s1/1"}, idx.Members[0].SessionRevisions)
}

func TestEditSessionAssignsInstructors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(seededIndex(), nil)
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})

	_, err := f.svc.EditSession(ctx, "s1/0", board.RevisionOptions{Instructors: []string{"m1"}})
	require.NoError(t, err)

	idx := f.writtenIndex(t)
	assert.Equal(t, 1, idx.Members[0].InstructorCount)
}

func TestConsolidateGroupsRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()

	idx := seededIndex()
	idx.Groups = append(idx.Groups, board.GroupSummary{
		ID:                   "g2",
		Name:                 "夕会",
		TotalDurationSeconds: 1800,
		SessionRevisions:     []string{"s2/0"},
	})
	f.source.On("Fetch", ctx).Return(idx, nil)
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})
	stubSession(f, &board.SessionRecord{
		SessionID:   "s2",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 1800}},
	})

	require.NoError(t, f.svc.ConsolidateGroups(ctx, "g1", []string{"g1", "g2"}))

	got := f.writtenIndex(t)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "g1", got.Groups[0].ID)
	assert.Equal(t, 5400, got.Groups[0].TotalDurationSeconds)
	assert.ElementsMatch(t, []string{"s1/0", "s2/0"}, got.Groups[0].SessionRevisions)
}

func TestConsolidateGroupsDeclinesOnMovedIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()

	base := seededIndex()
	base.Groups = append(base.Groups, board.GroupSummary{
		ID:                   "g2",
		Name:                 "夕会",
		TotalDurationSeconds: 1800,
		SessionRevisions:     []string{"s2/0"},
	})

	// Between the duration lookup and the write, another editor imported
	// s3/0 into g1. The lookup knows nothing about s3/0, so folding it in
	// would write a total that omits its duration.
	moved := seededIndex()
	moved.Version = base.Version + 1
	moved.Groups[0].SessionRevisions = []string{"s1/0", "s3/0"}
	moved.Groups[0].TotalDurationSeconds += 7200
	moved.Groups = append(moved.Groups, board.GroupSummary{
		ID:                   "g2",
		Name:                 "夕会",
		TotalDurationSeconds: 1800,
		SessionRevisions:     []string{"s2/0"},
	})

	f.source.On("Fetch", ctx).Return(base, nil).Once()
	f.source.On("Fetch", ctx).Return(moved, nil).Once()
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})
	stubSession(f, &board.SessionRecord{
		SessionID:   "s2",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 1800}},
	})

	err := f.svc.ConsolidateGroups(ctx, "g1", []string{"g1", "g2"})
	assert.ErrorIs(t, err, dashboard.ErrConflict)
	assert.NotContains(t, f.written, storage.IndexPath)
}

func TestEditSessionDeclinesWhenSessionRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()

	// The latest index no longer references s1/0: a concurrent editor
	// removed the session after our read.
	latest := seededIndex()
	latest.Groups[0].SessionRevisions = []string{}
	latest.Members[0].SessionRevisions = []string{}
	f.source.On("Fetch", ctx).Return(latest, nil)
	stubSession(f, &board.SessionRecord{
		SessionID:   "s1",
		Revision:    0,
		Attendances: []board.Attendance{{MemberID: "m1", DurationSeconds: 3600}},
	})

	_, err := f.svc.EditSession(ctx, "s1/0", board.RevisionOptions{Instructors: []string{"m1"}})
	assert.ErrorIs(t, err, dashboard.ErrConflict)
	assert.NotContains(t, f.written, storage.IndexPath)
}

func TestAddMemberReturnsID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()
	f.source.On("Fetch", ctx).Return(board.NewIndex(), nil)

	id, err := f.svc.AddMember(ctx, "佐藤 次郎")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	idx := f.writtenIndex(t)
	require.Len(t, idx.Members, 1)
	assert.Equal(t, id, idx.Members[0].ID)
	assert.Zero(t, idx.Members[0].TotalDurationSeconds)
}

func TestRemoveOrganizerClearsGroups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.acceptWrites()

	idx := seededIndex()
	organizerID := "o1"
	idx.Organizers = []board.OrganizerSummary{{ID: organizerID, Name: "佐藤"}}
	idx.Groups[0].OrganizerID = &organizerID
	f.source.On("Fetch", ctx).Return(idx, nil)

	require.NoError(t, f.svc.RemoveOrganizer(ctx, organizerID))

	got := f.writtenIndex(t)
	assert.Empty(t, got.Organizers)
	assert.Nil(t, got.Groups[0].OrganizerID)
}

func TestIndexServedThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.source.On("Fetch", ctx).Return(seededIndex(), nil).Once()

	first, err := f.svc.Index(ctx)
	require.NoError(t, err)
	second, err := f.svc.Index(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
