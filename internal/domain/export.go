package domain

// ExportPhase tracks a single export request through its lifecycle:
//
//	Requested → Resolving → Assembling → {Ready | Failed}
//
// Terminal Failed is reached only for structural errors (missing data,
// write failure). Per-record resolution failures never fail the export;
// they are embedded as markers in the produced documents.
type ExportPhase string

const (
	PhaseRequested  ExportPhase = "requested"
	PhaseResolving  ExportPhase = "resolving"
	PhaseAssembling ExportPhase = "assembling"
	PhaseReady      ExportPhase = "ready"
	PhaseFailed     ExportPhase = "failed"
)

// Artifact is a finished export: the assembled bytes plus the filename
// and MIME type to serve them under.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}
