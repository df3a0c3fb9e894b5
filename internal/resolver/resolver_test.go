package resolver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/store"
	"LF-DOCGEN/internal/tester"
)

const testFirm = "firm-1"

func newTestResolver(t *testing.T) (*Resolver, store.Store) {
	t.Helper()
	st := store.NewGormStore(tester.DB(t))
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(st, NewSynonymTable(), log), st
}

func seedTemplate(t *testing.T, st store.Store, firmID, name, searchable string) *models.Template {
	t.Helper()
	tmpl := &models.Template{
		ID:             uuid.New().String(),
		FirmID:         firmID,
		Name:           name,
		SearchableText: searchable,
		IsActive:       true,
		Version:        1,
	}
	require.NoError(t, st.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func TestResolveStopWordsAndSynonyms(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	bond := seedTemplate(t, st, testFirm, "bond_assignment", "bond assignment cash criminal")
	seedTemplate(t, st, testFirm, "notice_of_hearing", "notice hearing setting")

	matches, err := res.Resolve(ctx, Request{FirmID: testFirm, Query: "I need a bond assignment please"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, bond.ID, matches[0].Template.ID)
	assert.Equal(t, 2, matches[0].Score)

	// Shorthand expands without losing the original tokens.
	matches, err = res.Resolve(ctx, Request{FirmID: testFirm, Query: "assignment of cash bond"})
	require.NoError(t, err)
	assert.Equal(t, bond.ID, matches[0].Template.ID)
}

func TestResolveStopWordOnlyQueryKeepsTokens(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	intake := seedTemplate(t, st, testFirm, "client_intake_worksheet", "need the worksheet intake")
	seedTemplate(t, st, testFirm, "bond_assignment", "bond assignment cash")

	// Every word is a stop word, so filtering would leave nothing to
	// search on. The raw tokens are used instead and "need" still scores.
	matches, err := res.Resolve(ctx, Request{FirmID: testFirm, Query: "i need the"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, intake.ID, matches[0].Template.ID)
	assert.False(t, matches[0].Fallback)
}

func TestResolveAbbreviation(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	mtd := seedTemplate(t, st, testFirm, "motion_to_dismiss", "motion dismiss criminal")
	seedTemplate(t, st, testFirm, "motion_for_continuance", "motion continue continuance")

	tmpl, err := res.ResolveOne(ctx, Request{FirmID: testFirm, Query: "file an mtd"})
	require.NoError(t, err)
	assert.Equal(t, mtd.ID, tmpl.ID)
}

func TestResolveAdditiveScoring(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	seedTemplate(t, st, testFirm, "motion_to_dismiss", "motion dismiss")
	cont := seedTemplate(t, st, testFirm, "motion_for_continuance", "motion continuance hearing")

	// Extra filler words never push the right answer below a worse one.
	matches, err := res.Resolve(ctx, Request{FirmID: testFirm, Query: "can you please help me get a motion for continuance"})
	require.NoError(t, err)
	assert.Equal(t, cont.ID, matches[0].Template.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestResolveHardFilters(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	jefferson := seedTemplate(t, st, testFirm, "motion_to_dismiss_jefferson", "motion dismiss jefferson")
	jefferson.Jurisdiction = "jefferson"
	require.NoError(t, st.UpdateTemplate(ctx, jefferson))

	cole := seedTemplate(t, st, testFirm, "motion_to_dismiss_cole", "motion dismiss cole")
	cole.Jurisdiction = "cole"
	require.NoError(t, st.UpdateTemplate(ctx, cole))

	matches, err := res.Resolve(ctx, Request{
		FirmID:  testFirm,
		Query:   "motion to dismiss",
		Filters: store.TemplateFilters{Jurisdiction: "jefferson"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, jefferson.ID, matches[0].Template.ID)
}

func TestResolveFirmIsolation(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	seedTemplate(t, st, "other-firm", "bond_assignment", "bond assignment")

	_, err := res.Resolve(ctx, Request{FirmID: testFirm, Query: "bond assignment"})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveNameFallback(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	tmpl := seedTemplate(t, st, testFirm, "request_for_interrogatories", "request production admission")

	// "interrog" is not a whole token anywhere, so lexical scoring misses
	// and the name substring search takes over.
	matches, err := res.Resolve(ctx, Request{FirmID: testFirm, Query: "interrog"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, tmpl.ID, matches[0].Template.ID)
	assert.True(t, matches[0].Fallback)
}

func TestResolveNoMatch(t *testing.T) {
	res, st := newTestResolver(t)
	seedTemplate(t, st, testFirm, "bond_assignment", "bond assignment")

	_, err := res.Resolve(context.Background(), Request{FirmID: testFirm, Query: "chapter 7 bankruptcy petition"})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveOneAmbiguous(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	seedTemplate(t, st, testFirm, "notice_of_hearing_a", "notice hearing division one")
	seedTemplate(t, st, testFirm, "notice_of_hearing_b", "notice hearing division two")

	_, err := res.ResolveOne(ctx, Request{FirmID: testFirm, Query: "notice of hearing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguous)

	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

func TestResolveIgnoresInactive(t *testing.T) {
	res, st := newTestResolver(t)
	ctx := context.Background()

	old := seedTemplate(t, st, testFirm, "bond_assignment_old", "bond assignment")
	old.IsActive = false
	require.NoError(t, st.UpdateTemplate(ctx, old))
	current := seedTemplate(t, st, testFirm, "bond_assignment", "bond assignment")

	tmpl, err := res.ResolveOne(ctx, Request{FirmID: testFirm, Query: "bond assignment"})
	require.NoError(t, err)
	assert.Equal(t, current.ID, tmpl.ID)
}

func TestSynonymExpansion(t *testing.T) {
	table := NewSynonymTable()

	assert.Contains(t, table.Expand("file an mtd today"), "motion to dismiss")
	assert.Contains(t, table.Expand("assignment of cash bond"), "bond assignment")
	// Whole words only: "mtd" inside another word must not expand.
	assert.NotContains(t, table.Expand("submitted"), "motion to dismiss")
	// Original text survives expansion.
	assert.Contains(t, table.Expand("ROGS for the state"), "rogs")
}

func TestSynonymTableLoadFileMissingIsOK(t *testing.T) {
	table := NewSynonymTable()
	assert.NoError(t, table.LoadFile("/nonexistent/synonyms.yaml"))
}
