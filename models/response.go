package models

// LookupResponse is the response for POST /fetch_oab.
//
// A scrape-level failure is still a 200 response with only Error set;
// a successful lookup fills the six record fields and leaves Error empty.
type LookupResponse struct {
	OAB           string `json:"oab,omitempty"`
	Name          string `json:"name,omitempty"`
	UF            string `json:"uf,omitempty"`
	Categoria     string `json:"categoria,omitempty"`
	DataInscricao string `json:"data_inscricao,omitempty"`
	Situacao      string `json:"situacao,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewLookupResponse maps a normalized record to the API field names.
func NewLookupResponse(r *Record) LookupResponse {
	return LookupResponse{
		OAB:           r.Number,
		Name:          r.Name,
		UF:            r.Region,
		Categoria:     r.Category,
		DataInscricao: r.InscribedAt,
		Situacao:      r.Status,
	}
}

// ErrorResponse is returned for request-shape violations (4xx) and
// unexpected internal faults (5xx).
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// RootResponse is the response for GET /.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
