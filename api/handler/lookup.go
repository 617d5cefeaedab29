package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oab/models"
	"github.com/use-agent/oab/scraper"
)

// Looker performs a registry lookup. *scraper.Scraper satisfies it.
type Looker interface {
	Lookup(ctx context.Context, name, region string) scraper.Result
}

// Lookup returns a handler for POST /fetch_oab.
//
// Flow:
//  1. Bind the JSON body; a malformed or incomplete body is a 422.
//  2. Trim and upper-case; blank fields and unknown regions are a 400.
//  3. Run the lookup. Scrape-level failures are still a 200 with "error" set.
func Lookup(l Looker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:  "invalid request body: name and uf are required",
				Code:   models.ErrCodeInvalidInput,
				Detail: err.Error(),
			})
			return
		}
		req.Defaults()

		// ── 2. Validate ─────────────────────────────────────────────
		if req.Name == "" {
			badRequest(c, "name is required and must not be blank")
			return
		}
		if req.UF == "" {
			badRequest(c, "uf is required and must not be blank")
			return
		}
		if !models.IsRegion(req.UF) {
			badRequest(c, fmt.Sprintf("invalid region: %s. valid regions: %s",
				req.UF, strings.Join(models.Regions, ", ")))
			return
		}

		// ── 3. Lookup ───────────────────────────────────────────────
		res := l.Lookup(c.Request.Context(), req.Name, req.UF)
		if res.Err != nil {
			slog.Warn("lookup returned an error result",
				"code", res.Err.Code,
				"error", res.Err.Message,
			)
			c.JSON(http.StatusOK, models.LookupResponse{Error: res.Err.Message})
			return
		}
		c.JSON(http.StatusOK, models.NewLookupResponse(res.Record))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: msg,
		Code:  models.ErrCodeInvalidInput,
	})
}
