package adapters

// StorageAdapter is an interface for event persistence between runs.
// Implement this interface to use custom storage backends.
type StorageAdapter interface {
	// Save persists events to storage.
	Save(events []Event) error

	// Load retrieves persisted events from storage.
	Load() ([]Event, error)

	// Clear removes all persisted events from storage.
	Clear() error
}
