package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrEntityNotFound indicates that an entity with the given ID does not exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrCredentialsNotFound indicates that no credentials are stored for the entity.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrSessionNotFound indicates that no session is stored for the entity.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAdapterNotFound indicates that no adapter is registered for the entity.
	ErrAdapterNotFound = errors.New("adapter not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrFeatureNotSupported indicates that the adapter does not implement the
	// requested feature.
	ErrFeatureNotSupported = errors.New("feature not supported")

	// ErrInvalidProvidedCredentials indicates that the supplied credential map
	// is missing fields required by the entity's credential template.
	ErrInvalidProvidedCredentials = errors.New("invalid provided credentials")

	// ErrExecutionConflict indicates that another fetch or import for the same
	// scope is already running.
	ErrExecutionConflict = errors.New("execution already in progress")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")
)

// Storage errors represent failures of the encrypted store itself.
var (
	// ErrDecryption indicates that the database could not be unlocked with the
	// derived key, almost always a wrong password.
	ErrDecryption = errors.New("decryption failed")

	// ErrVaultLocked indicates that an encrypted-column operation was attempted
	// before the vault key was set.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrMigrationAheadOfTime indicates that the database schema version is
	// newer than the highest migration known to this binary.
	ErrMigrationAheadOfTime = errors.New("database schema is ahead of this binary")
)

// Import errors represent failures while turning sheet rows into stored data.
var (
	// ErrFailedToImportVirtualData indicates that a sheet row could not be
	// mapped onto the domain model. The whole batch is abandoned.
	ErrFailedToImportVirtualData = errors.New("failed to import virtual data")
)
