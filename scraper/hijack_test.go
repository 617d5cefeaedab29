package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTrackerDomain(t *testing.T) {
	assert.True(t, isTrackerDomain("www.google-analytics.com"))
	assert.True(t, isTrackerDomain("GoogleTagManager.com"))
	assert.True(t, isTrackerDomain("stats.g.doubleclick.net"))
	assert.False(t, isTrackerDomain("cna.oab.org.br"))
	assert.False(t, isTrackerDomain("analytics.com"))
}
