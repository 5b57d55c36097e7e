package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/common"
)

func newTestRepos(t *testing.T) (AbstractRepository, DrugRepository, LedgerRepository) {
	t.Helper()
	logger := slog.Default()
	cfg := Config{
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		DialTimeout: time.Second,
	}
	db, driver, err := Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewAbstractRepository(db, driver, logger),
		NewDrugRepository(db, driver, logger),
		NewLedgerRepository(db, driver, logger)
}

func TestInsertAbstractAndDuplicate(t *testing.T) {
	abstracts, _, _ := newTestRepos(t)
	ctx := context.Background()

	id, err := abstracts.InsertAbstract(ctx, "trial_a.pdf", "abstract text", time.Now())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = abstracts.InsertAbstract(ctx, "trial_a.pdf", "other text", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicate)

	rows, err := abstracts.ListAbstracts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "trial_a.pdf", rows[0].Filename)
	assert.Equal(t, "abstract text", rows[0].Text)
}

func TestInsertDrugAndAttributes(t *testing.T) {
	abstracts, drugs, _ := newTestRepos(t)
	ctx := context.Background()

	abstractID, err := abstracts.InsertAbstract(ctx, "trial_b.pdf", "text", time.Now())
	require.NoError(t, err)

	drugID, err := drugs.InsertDrug(ctx, abstractID, "DrugX")
	require.NoError(t, err)

	require.NoError(t, drugs.InsertAttribute(ctx, drugID, "Cancer Type", "Lung"))
	require.NoError(t, drugs.InsertAttribute(ctx, drugID, "Trial Name", "unknown"))

	got, err := drugs.DrugsByAbstract(ctx, abstractID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "DrugX", got[0].Name)
	assert.Equal(t, abstractID, got[0].AbstractID)

	attrs, err := drugs.AttributesByDrug(ctx, drugID)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "Cancer Type", attrs[0].Name)
	assert.Equal(t, "Lung", attrs[0].Value)
}

func TestInsertChildWithMissingParent(t *testing.T) {
	abstracts, drugs, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := drugs.InsertDrug(ctx, 9999, "Orphan")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForeignKey)

	abstractID, err := abstracts.InsertAbstract(ctx, "trial_c.pdf", "text", time.Now())
	require.NoError(t, err)
	_, err = drugs.InsertDrug(ctx, abstractID, "DrugY")
	require.NoError(t, err)

	err = drugs.InsertAttribute(ctx, 9999, "Cancer Type", "Lung")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForeignKey)
}

func TestLedgerLifecycle(t *testing.T) {
	_, _, ledger := newTestRepos(t)
	ctx := context.Background()

	ok, err := ledger.IsProcessed(ctx, "trial_d.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ledger.MarkProcessed(ctx, "trial_d.pdf", constants.StatusFailed))
	ok, err = ledger.IsProcessed(ctx, "trial_d.pdf")
	require.NoError(t, err)
	assert.False(t, ok, "failed files stay eligible for reprocessing")

	// Marking again with a new status overwrites instead of erroring.
	require.NoError(t, ledger.MarkProcessed(ctx, "trial_d.pdf", constants.StatusSuccess))
	require.NoError(t, ledger.MarkProcessed(ctx, "trial_d.pdf", constants.StatusSuccess))
	ok, err = ledger.IsProcessed(ctx, "trial_d.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := ledger.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]constants.FileStatus{
		"trial_d.pdf": constants.StatusSuccess,
	}, entries)

	counts, err := ledger.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[constants.StatusSuccess])
	assert.Equal(t, 0, counts[constants.StatusFailed])
}
