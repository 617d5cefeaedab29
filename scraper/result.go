package scraper

import "github.com/use-agent/oab/models"

// Result is the outcome of one lookup. Exactly one of Record and Err is set.
type Result struct {
	Record *models.Record
	Err    *models.ScrapeError
}

// OK reports whether the lookup produced a record.
func (r Result) OK() bool {
	return r.Err == nil && r.Record != nil
}

func failed(code, message string, cause error) Result {
	return Result{Err: models.NewScrapeError(code, message, cause)}
}
