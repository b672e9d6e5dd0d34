package history

import "codeberg.org/mutker/sysmond/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("history_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	// Recording Errors
	ErrInvalidEntry = errors.ErrorCode("history_invalid_entry")
	ErrRecordFailed = errors.ErrorCode("history_record_failed")

	// Storage Errors
	ErrStorageInit       = errors.ErrorCode("history_storage_init_failed")
	ErrStorageClose      = errors.ErrorCode("history_storage_close_failed")
	ErrTransactionFailed = errors.ErrorCode("history_transaction_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("history_operation_timeout")
	ErrServiceShutdown  = errors.ErrorCode("history_service_shutdown_failed")
)
