package model

type FileState string

const (
	StateReceived  FileState = "received"
	StateValidated FileState = "validated"
	StateUploaded  FileState = "uploaded"
	StateCommitted FileState = "committed"
	StateReleased  FileState = "released"
)

// StagedFile is a request-scoped file buffered in the scratch directory.
type StagedFile struct {
	TempPath     string
	Field        string
	DeclaredMime string
	DeclaredName string
	SizeBytes    int64
	Profile      *UploadProfile
	State        FileState
}
