package api

// QueryRequest is the body of POST /api/query. TopK is optional; it is
// validated for range, but the retrieval depth itself comes from server
// configuration.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Source identifies one document that contributed to an answer. Content is a
// short preview of the first chunk retrieved from it, not the full text.
type Source struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    string `json:"page,omitempty"`
}

// QueryResponse is the body of a successful POST /api/query.
type QueryResponse struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	IsSufficient bool     `json:"is_sufficient"`
	Iterations   int      `json:"iterations"`
	Cached       bool     `json:"cached,omitempty"`
}

// UploadResponse is the body of a successful POST /api/upload.
type UploadResponse struct {
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status     string `json:"status"`
	LLM        string `json:"llm"`
	Store      string `json:"store"`
	ChunkCount int    `json:"chunk_count"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
