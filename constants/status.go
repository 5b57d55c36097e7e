package constants

// Stage is the pipeline state for a single input file.
type Stage string

const (
	StagePending    Stage = "PENDING"
	StageExtracting Stage = "EXTRACTING"
	StageQuerying   Stage = "QUERYING"
	StageValidating Stage = "VALIDATING"
	StagePersisting Stage = "PERSISTING"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// FileStatus is the ledger status for rows in processed_files.
// Stable values (store these exact strings in DB).
type FileStatus string

const (
	StatusSuccess FileStatus = "success"
	StatusFailed  FileStatus = "failed"
)

// FailureReason codes attached to a FAILED transition in logs.
type FailureReason string

const (
	ReasonExtractionError FailureReason = "extraction_error"
	ReasonLLMError        FailureReason = "llm_error"
	ReasonInvalidJSON     FailureReason = "invalid_json"
	ReasonDBError         FailureReason = "db_error"
)
