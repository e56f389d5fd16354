package documents

import "time"

// Analysis statuses mirror the document's latest job so list views
// never need a queue lookup.
const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// Document is an uploaded file attached to a request. Fingerprint is a
// content hash; documents sharing a fingerprint share one uploaded copy
// at the AI gateway via ExternalFileID.
type Document struct {
	ID             string     `json:"id"`
	RequestType    string     `json:"requestType"`
	RequestID      string     `json:"requestId"`
	UploaderID     string     `json:"uploaderId"`
	FileName       string     `json:"fileName"`
	MimeType       string     `json:"mimeType"`
	SizeBytes      int64      `json:"sizeBytes"`
	StorageKey     string     `json:"-"`
	Fingerprint    string     `json:"fingerprint"`
	ExternalFileID string     `json:"externalFileId,omitempty"`
	AnalysisStatus string     `json:"analysisStatus"`
	Summary        string     `json:"summary,omitempty"`
	Insights       string     `json:"insights,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	DeletedAt      *time.Time `json:"-"`
}
