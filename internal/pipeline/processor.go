package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/common"
	"github.com/oncopipe/drug-detective/internal/extract"
	"github.com/oncopipe/drug-detective/internal/llm"
	"github.com/oncopipe/drug-detective/internal/repository"
)

// Processor runs the per-file state machine:
// Pending → Extracting → Querying → Validating → Persisting → Done | Failed.
// Files are processed one at a time; a per-file failure is logged and the run
// continues with the next file.
type Processor struct {
	logger       *slog.Logger
	extractor    extract.TextExtractor
	llmExtractor llm.DrugExtractor
	validator    *llm.Validator
	abstracts    repository.AbstractRepository
	drugs        repository.DrugRepository
	ledger       repository.LedgerRepository
	pdfFolder    string
}

func NewProcessor(
	logger *slog.Logger,
	extractor extract.TextExtractor,
	drugExtractor llm.DrugExtractor,
	validator *llm.Validator,
	abstracts repository.AbstractRepository,
	drugs repository.DrugRepository,
	ledger repository.LedgerRepository,
	pdfFolder string,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:       logger,
		extractor:    extractor,
		llmExtractor: drugExtractor,
		validator:    validator,
		abstracts:    abstracts,
		drugs:        drugs,
		ledger:       ledger,
		pdfFolder:    pdfFolder,
	}
}

// FileResult is the terminal state of one input file within a run.
type FileResult struct {
	Filename string
	Stage    constants.Stage
	Reason   constants.FailureReason
	Err      error
}

// RunStats aggregates one pipeline run.
type RunStats struct {
	Scanned   int
	Skipped   int
	Succeeded int
	Failed    int
	Results   []FileResult
}

// Run scans the input folder, skips files already marked "success" in the
// ledger, and pipelines the rest sequentially. It returns an error only for
// setup-class failures; per-file failures are reflected in the stats.
func (p *Processor) Run(ctx context.Context) (RunStats, error) {
	runID := uuid.New().String()
	start := time.Now()
	var stats RunStats

	processed, err := p.ledger.LoadLedger(ctx)
	if err != nil {
		return stats, common.NewAppError("LEDGER_LOAD", "failed to load processed-file ledger", err)
	}

	files, err := extract.ScanFolder(p.pdfFolder)
	if err != nil {
		return stats, err
	}

	p.logger.Info("pipeline.run.start",
		"run_id", runID, "folder", p.pdfFolder,
		"files_found", len(files), "ledger_entries", len(processed),
	)

	for _, filename := range files {
		stats.Scanned++

		if processed[filename] == constants.StatusSuccess {
			p.logger.Info("pipeline.file.skipped", "run_id", runID, "filename", filename, "stage", constants.StagePending)
			stats.Skipped++
			continue
		}

		res := p.processFile(ctx, runID, filename)
		stats.Results = append(stats.Results, res)
		if res.Stage == constants.StageDone {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	p.logger.Info("pipeline.run.complete",
		"run_id", runID,
		"scanned", stats.Scanned,
		"skipped", stats.Skipped,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// processFile drives one file through every stage. On failure the ledger is
// left untouched, so the file stays eligible for the next run.
func (p *Processor) processFile(ctx context.Context, runID, filename string) FileResult {
	log := p.logger.With("run_id", runID, "filename", filename)

	// Extracting
	log.Info("pipeline.file.stage", "stage", constants.StageExtracting)
	text, err := p.extractor.ExtractText(ctx, filepath.Join(p.pdfFolder, filename))
	if err != nil {
		return p.fail(log, filename, constants.StageExtracting, constants.ReasonExtractionError, err)
	}

	// Querying
	log.Info("pipeline.file.stage", "stage", constants.StageQuerying)
	raw, err := p.llmExtractor.ExtractDrugs(ctx, llm.ExtractRequest{
		AbstractText: text,
		FilenameHint: filename,
	})
	if err != nil {
		return p.fail(log, filename, constants.StageQuerying, constants.ReasonLLMError, err)
	}

	// Validating
	log.Info("pipeline.file.stage", "stage", constants.StageValidating)
	drugs, err := p.validator.Validate(raw)
	if err != nil {
		return p.fail(log, filename, constants.StageValidating, constants.ReasonInvalidJSON, err)
	}

	// Persisting
	log.Info("pipeline.file.stage", "stage", constants.StagePersisting, "drugs", len(drugs))
	if err := p.persist(ctx, filename, text, drugs); err != nil {
		return p.fail(log, filename, constants.StagePersisting, constants.ReasonDBError, err)
	}

	// Done: the ledger entry and the rows belong to the same logical unit, so
	// the mark happens only after every row landed.
	if err := p.ledger.MarkProcessed(ctx, filename, constants.StatusSuccess); err != nil {
		return p.fail(log, filename, constants.StagePersisting, constants.ReasonDBError, err)
	}

	log.Info("pipeline.file.stage", "stage", constants.StageDone)
	return FileResult{Filename: filename, Stage: constants.StageDone}
}

func (p *Processor) persist(ctx context.Context, filename, text string, drugs []llm.NormalizedDrug) error {
	abstractID, err := p.abstracts.InsertAbstract(ctx, filename, text, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, drug := range drugs {
		drugID, err := p.drugs.InsertDrug(ctx, abstractID, drug.Name)
		if err != nil {
			return err
		}
		for _, attr := range drug.Attributes.Pairs() {
			if err := p.drugs.InsertAttribute(ctx, drugID, attr.Name, attr.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) fail(log *slog.Logger, filename string, stage constants.Stage, reason constants.FailureReason, err error) FileResult {
	// Duplicate inserts mean the row already exists from an earlier partial
	// run; surface the specific cause in the log line.
	if errors.Is(err, common.ErrDuplicate) || errors.Is(err, common.ErrForeignKey) {
		reason = constants.ReasonDBError
	}
	log.Error("pipeline.file.failed",
		"stage", constants.StageFailed,
		"failed_at", stage,
		"reason", reason,
		"error", err,
	)
	return FileResult{Filename: filename, Stage: constants.StageFailed, Reason: reason, Err: err}
}
