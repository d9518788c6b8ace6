package types

// SuccessEnvelope is the wire shape of every 2xx response.
type SuccessEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorEnvelope is the wire shape of every error response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Pagination describes the slice of a paginated listing.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}
