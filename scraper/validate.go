package scraper

import (
	"strings"

	"github.com/use-agent/oab/models"
)

// Validation rule messages, reported in this order.
const (
	msgNameRequired     = "name is required"
	msgRegionRequired   = "region is required"
	msgFullNameRequired = "full name is required (at least first and last name)"
)

// Validate trims name, upper-cases region and checks every rule, reporting
// all violations in a single VALIDATION_FAILED error. It has no side effects.
func Validate(name, region string) (models.Query, error) {
	name = strings.TrimSpace(name)
	region = models.NormalizeRegion(region)

	var violations []string
	if name == "" {
		violations = append(violations, msgNameRequired)
	}
	if region == "" {
		violations = append(violations, msgRegionRequired)
	}
	if name != "" && len(strings.Fields(name)) < 2 {
		violations = append(violations, msgFullNameRequired)
	}

	if len(violations) > 0 {
		return models.Query{}, models.NewScrapeError(
			models.ErrCodeValidation,
			"validation failed: "+strings.Join(violations, "; "),
			nil,
		)
	}
	return models.Query{Name: name, Region: region}, nil
}
