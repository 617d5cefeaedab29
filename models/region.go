package models

import "strings"

// Regions lists the 27 seccionais (UF codes) accepted by the registry.
// It is the single source of truth for every layer that validates a region.
var Regions = []string{
	"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA",
	"MG", "MS", "MT", "PA", "PB", "PE", "PI", "PR", "RJ", "RN",
	"RO", "RR", "RS", "SC", "SE", "SP", "TO",
}

var regionSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Regions))
	for _, r := range Regions {
		m[r] = struct{}{}
	}
	return m
}()

// IsRegion reports whether code (case-insensitive, surrounding space ignored)
// is one of Regions.
func IsRegion(code string) bool {
	_, ok := regionSet[NormalizeRegion(code)]
	return ok
}

// NormalizeRegion trims and upper-cases a region code.
func NormalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
