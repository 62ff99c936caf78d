package resume

import "fmt"

// Error taxonomy. Validation and permission failures carry no side
// effects; storage and database failures may leave a just-written blob
// behind, which the ingestion pipeline compensates for before returning.

// ValidationError rejects malformed input (bad id, missing/empty/
// oversized file, wrong signature). Maps to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError covers absent or tombstoned records and missing blobs.
// Maps to 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// PermissionError rejects non-owner, non-admin mutation. Maps to 403.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// StorageError wraps blob store failures with the pipeline stage at
// which they occurred. Maps to 500.
type StorageError struct {
	Stage string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure at %s: %v", e.Stage, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DatabaseError wraps metadata store failures. Maps to 500.
type DatabaseError struct {
	Stage string
	Err   error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database failure at %s: %v", e.Stage, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
