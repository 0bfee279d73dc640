package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasu-devs/Vaani/internal/domain"
)

func testStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func testAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		RPCStatus:      domain.RPCStatusYes,
		CallOutcome:    domain.CallOutcomePTP,
		RiskScore:      42,
		MatrixQuadrant: domain.QuadrantForgetful,
		FinancialProfile: domain.FinancialProfile{
			PaymentMethodMentioned: domain.PaymentMethodNone,
		},
		AgentNotes: "Paid up.",
	}
}

func TestPersistFiltersSystemEntriesAndLabelsSpeakers(t *testing.T) {
	store := testStore(t)
	cfg := domain.CallConfiguration{DebtorName: "Alice", AgentName: "Rachel"}

	entries := []domain.TranscriptEntry{
		{Role: domain.RoleSystem, Content: "You are a collections agent."},
		{Role: domain.RoleAssistant, Content: "Hello, this is Rachel."},
		{Role: domain.RoleUser, Content: "Who is this?"},
	}

	id, err := store.Persist(context.Background(), cfg, entries, testAssessment())
	require.NoError(t, err)

	record, err := store.Get(context.Background(), id)
	require.NoError(t, err)

	// The system prompt never reaches the record.
	require.Len(t, record.Transcript, 2)
	assert.Equal(t, "Rachel", record.Transcript[0].Speaker)
	assert.Equal(t, "Alice", record.Transcript[1].Speaker)
	assert.False(t, record.Transcript[0].CapturedAt.IsZero())

	assert.Equal(t, domain.RecordStatusCompleted, record.Status)
	assert.Equal(t, 42, record.RiskScore)
	assert.Equal(t, "Alice", record.Metadata.DebtorName)
}

func TestPersistSameSecondProducesDistinctRecords(t *testing.T) {
	store := testStore(t)
	cfg := domain.CallConfiguration{DebtorName: "Bob"}
	entries := []domain.TranscriptEntry{{Role: domain.RoleUser, Content: "hi"}}

	// Two finalizations in the same wall-clock second must not overwrite
	// each other.
	first, err := store.Persist(context.Background(), cfg, entries, testAssessment())
	require.NoError(t, err)
	second, err := store.Persist(context.Background(), cfg, entries, testAssessment())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	r1, err := store.Get(context.Background(), first)
	require.NoError(t, err)
	r2, err := store.Get(context.Background(), second)
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "call-19700101_000000")

	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)
	entries := []domain.TranscriptEntry{{Role: domain.RoleUser, Content: "hi"}}

	_, err := store.Persist(context.Background(), domain.CallConfiguration{DebtorName: "First"}, entries, testAssessment())
	require.NoError(t, err)
	_, err = store.Persist(context.Background(), domain.CallConfiguration{DebtorName: "Second"}, entries, testAssessment())
	require.NoError(t, err)

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, 42, s.RiskScore)
	}
}

func TestListSkipsMalformedFiles(t *testing.T) {
	store := testStore(t)
	entries := []domain.TranscriptEntry{{Role: domain.RoleUser, Content: "hi"}}

	_, err := store.Persist(context.Background(), domain.CallConfiguration{DebtorName: "Carol"}, entries, testAssessment())
	require.NoError(t, err)

	require.NoError(t, writeGarbage(store.dir))

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func writeGarbage(dir string) error {
	return os.WriteFile(filepath.Join(dir, "log_19700101_000001.json"), []byte("{not json"), 0o644)
}

func TestSummaryOfUnknownDebtor(t *testing.T) {
	summary := summaryOf(domain.CallRecord{ID: "call-x", RiskScore: 5})
	assert.Equal(t, "Unknown", summary.DebtorName)
}
