package types

// SaveStatus is the externally visible state of the most recent save.
type SaveStatus string

// Save statuses. The persistence engine reports idle, saving, saved and
// error; the auto-save orchestrator additionally derives unsaved.
const (
	StatusIdle    SaveStatus = "idle"
	StatusSaving  SaveStatus = "saving"
	StatusSaved   SaveStatus = "saved"
	StatusError   SaveStatus = "error"
	StatusUnsaved SaveStatus = "unsaved"
)

func (s SaveStatus) String() string { return string(s) }

// PersistenceState is a snapshot of an engine's derived state. It is never
// stored.
type PersistenceState struct {
	Data              map[string]any
	IsLoaded          bool
	IsLoading         bool
	HasUnsavedChanges bool
	HasSavedData      bool
	SaveStatus        SaveStatus
	Error             string
}
