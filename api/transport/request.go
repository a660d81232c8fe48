package transport

// CreateCaseRequest carries one case document plus the number of identical
// cases to create from it.
type CreateCaseRequest struct {
	Case     map[string]interface{} `json:"case"`
	NumCases int                    `json:"numCases"`
}

// BatchCasesRequest carries many case documents, used by batch upsert and
// batch update.
type BatchCasesRequest struct {
	Cases []map[string]interface{} `json:"cases"`
}

// TargetRequest selects cases for a bulk operation: a filter query or an
// explicit id list, never both.
type TargetRequest struct {
	Query   *string  `json:"query,omitempty"`
	CaseIDs []string `json:"caseIds,omitempty"`
}

// StatusChangeRequest moves the targeted cases to a new curation status.
type StatusChangeRequest struct {
	TargetRequest
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// BatchDeleteRequest removes the targeted cases. MaxCasesThreshold, when
// positive, refuses the deletion if the filter matches more cases than that.
type BatchDeleteRequest struct {
	TargetRequest
	MaxCasesThreshold int64 `json:"maxCasesThreshold,omitempty"`
}

// DownloadRequest streams the targeted cases in the requested format.
type DownloadRequest struct {
	TargetRequest
	Format string `json:"format"`
}

// FieldRequest declares a new custom field on the schema.
type FieldRequest struct {
	Key                string      `json:"key"`
	Type               string      `json:"type"`
	DataDictionaryText string      `json:"dataDictionaryText,omitempty"`
	Required           bool        `json:"required,omitempty"`
	Default            interface{} `json:"default,omitempty"`
	Values             []string    `json:"values,omitempty"`
}

// IngestRequest carries raw feed rows for one source.
type IngestRequest struct {
	Rows []map[string]string `json:"rows"`
}
