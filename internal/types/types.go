package types

// AnalyzeReq asks for an asynchronous analysis of one symbol.
type AnalyzeReq struct {
	Symbol string `json:"symbol"`
}

// AnalyzeResp acknowledges a submitted job.
type AnalyzeResp struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// StatusReq identifies a job by its task ID.
type StatusReq struct {
	TaskID string `path:"task_id"`
}

// StatusResp is the job snapshot returned to clients.
type StatusResp struct {
	TaskID      string `json:"task_id"`
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	ReportPath  string `json:"report_path,omitempty"`
}

// HealthResp reports service liveness.
type HealthResp struct {
	Status string `json:"status"`
}

// ErrorResp is the uniform JSON error body.
type ErrorResp struct {
	Error string `json:"error"`
}
