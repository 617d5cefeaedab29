package models

import "strings"

// LookupRequest is the payload for POST /fetch_oab.
type LookupRequest struct {
	// Name is the professional's full name. Required.
	Name string `json:"name" binding:"required"`

	// UF is the two-letter seccional code, e.g. "SP". Required.
	UF string `json:"uf" binding:"required"`
}

// Defaults trims the name and normalizes the region code.
func (r *LookupRequest) Defaults() {
	r.Name = strings.TrimSpace(r.Name)
	r.UF = NormalizeRegion(r.UF)
}
