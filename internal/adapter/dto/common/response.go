package common

// ListResponse wraps a list with its length
type ListResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// CountResponse reports how many rows an operation touched
type CountResponse struct {
	Count int64 `json:"count"`
}

// IDResponse carries the id of a created resource
type IDResponse struct {
	ID string `json:"id"`
}

// NewList creates a ListResponse
func NewList(items interface{}, count int) *ListResponse {
	return &ListResponse{Items: items, Count: count}
}
