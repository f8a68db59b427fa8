package api

import (
	"encoding/json"
)

type meta struct {
	TotalRecords uint64  `json:"totalRecords"`
	Count        uint64  `json:"count"`
	Range        *string `json:"range,omitempty"`
}

type ApiResponse struct {
	Meta *meta `json:"meta,omitempty"`
	Data any   `json:"data"`
}

func (r ApiResponse) Byte() []byte {
	b, _ := json.Marshal(r)
	return b
}

func newCollectionResponse[T any](data []T, total int) ApiResponse {
	if data == nil {
		data = []T{}
	}

	return ApiResponse{
		Meta: &meta{
			TotalRecords: uint64(total),
			Count:        uint64(len(data)),
		},
		Data: data,
	}
}
