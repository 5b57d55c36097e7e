package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/llm"
	"github.com/oncopipe/drug-detective/internal/repository"
)

// fakeExtractor returns canned text per path, or an error.
type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text + " (" + filepath.Base(path) + ")", nil
}

// fakeLLM returns a canned raw response, or an error.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) ExtractDrugs(_ context.Context, _ llm.ExtractRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type testEnv struct {
	processor *Processor
	abstracts repository.AbstractRepository
	drugs     repository.DrugRepository
	ledger    repository.LedgerRepository
	extractor *fakeExtractor
	model     *fakeLLM
	folder    string
}

func newTestEnv(t *testing.T, filenames []string, extractor *fakeExtractor, model *fakeLLM) *testEnv {
	t.Helper()
	logger := slog.Default()

	folder := t.TempDir()
	for _, name := range filenames {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte("%PDF-1.4"), 0o644))
	}

	cfg := repository.Config{
		DSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		DialTimeout: time.Second,
	}
	db, driver, err := repository.Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	abstracts := repository.NewAbstractRepository(db, driver, logger)
	drugs := repository.NewDrugRepository(db, driver, logger)
	ledger := repository.NewLedgerRepository(db, driver, logger)
	validator := llm.NewValidator(logger)

	return &testEnv{
		processor: NewProcessor(logger, extractor, model, validator, abstracts, drugs, ledger, folder),
		abstracts: abstracts,
		drugs:     drugs,
		ledger:    ledger,
		extractor: extractor,
		model:     model,
		folder:    folder,
	}
}

const drugXResponse = `{"drugs":[{"drug_name":"DrugX","attributes":[{"attribute_name":"Cancer Type","attribute_value":"Lung"}]}]}`

func TestRunPersistsDrugAndFullAttributeSet(t *testing.T) {
	env := newTestEnv(t, []string{"trial.pdf"},
		&fakeExtractor{text: "abstract"},
		&fakeLLM{response: drugXResponse})
	ctx := context.Background()

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)

	rows, err := env.abstracts.ListAbstracts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "trial.pdf", rows[0].Filename)

	drugs, err := env.drugs.DrugsByAbstract(ctx, rows[0].ID)
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, "DrugX", drugs[0].Name)

	attrs, err := env.drugs.AttributesByDrug(ctx, drugs[0].ID)
	require.NoError(t, err)
	require.Len(t, attrs, len(constants.AllAttributes()))

	values := map[string]string{}
	for _, a := range attrs {
		values[a.Name] = a.Value
	}
	assert.Equal(t, "Lung", values["Cancer Type"])
	assert.Equal(t, constants.UnknownValue, values["Generic Name"])
	assert.Equal(t, constants.UnknownValue, values["US Approval Date"])

	ok, err := env.ledger.IsProcessed(ctx, "trial.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunIsIdempotent(t *testing.T) {
	env := newTestEnv(t, []string{"one.pdf", "two.pdf"},
		&fakeExtractor{text: "abstract"},
		&fakeLLM{response: drugXResponse})
	ctx := context.Background()

	_, err := env.processor.Run(ctx)
	require.NoError(t, err)
	firstLLMCalls := env.model.calls
	assert.Equal(t, 2, firstLLMCalls)

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Succeeded)
	assert.Equal(t, firstLLMCalls, env.model.calls, "second run must not re-bill the LLM")

	rows, err := env.abstracts.ListAbstracts(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "second run must produce no new rows")
}

func TestRunContinuesPastPerFileFailures(t *testing.T) {
	env := newTestEnv(t, []string{"bad.pdf"},
		&fakeExtractor{err: fmt.Errorf("scanned image, no text")},
		&fakeLLM{response: drugXResponse})
	ctx := context.Background()

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err, "per-file failures must not fail the run")
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Results, 1)
	assert.Equal(t, constants.StageFailed, stats.Results[0].Stage)
	assert.Equal(t, constants.ReasonExtractionError, stats.Results[0].Reason)
	assert.Equal(t, 0, env.model.calls, "extraction failure must not reach the LLM")

	ok, err := env.ledger.IsProcessed(ctx, "bad.pdf")
	require.NoError(t, err)
	assert.False(t, ok, "failed files stay unmarked and eligible for retry")
}

func TestRunLLMFailureLeavesNoRows(t *testing.T) {
	env := newTestEnv(t, []string{"trial.pdf"},
		&fakeExtractor{text: "abstract"},
		&fakeLLM{err: fmt.Errorf("429 rate limited")})
	ctx := context.Background()

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Results, 1)
	assert.Equal(t, constants.ReasonLLMError, stats.Results[0].Reason)

	rows, err := env.abstracts.ListAbstracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "nothing persists before validation passes")
}

func TestRunInvalidJSONFailsFile(t *testing.T) {
	env := newTestEnv(t, []string{"trial.pdf"},
		&fakeExtractor{text: "abstract"},
		&fakeLLM{response: "I found no structured data, sorry."})
	ctx := context.Background()

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Results, 1)
	assert.Equal(t, constants.ReasonInvalidJSON, stats.Results[0].Reason)

	ok, err := env.ledger.IsProcessed(ctx, "trial.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunPartialPersistenceLeavesFileUnmarked(t *testing.T) {
	env := newTestEnv(t, []string{"trial.pdf"},
		&fakeExtractor{text: "abstract"},
		&fakeLLM{response: drugXResponse})
	ctx := context.Background()

	// Simulate an earlier run that wrote the abstract row and crashed before
	// the drug insert and before the ledger mark.
	_, err := env.abstracts.InsertAbstract(ctx, "trial.pdf", "abstract (trial.pdf)", time.Now())
	require.NoError(t, err)

	stats, err := env.processor.Run(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Results, 1)
	assert.Equal(t, constants.ReasonDBError, stats.Results[0].Reason,
		"duplicate abstract surfaces as a store failure")

	ok, err := env.ledger.IsProcessed(ctx, "trial.pdf")
	require.NoError(t, err)
	assert.False(t, ok, "ledger stays unmarked after a persistence failure")
}
