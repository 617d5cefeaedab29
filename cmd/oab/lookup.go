package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/oab/metrics"
	"github.com/use-agent/oab/models"
	"github.com/use-agent/oab/scraper"
)

var errLookupFailed = errors.New("lookup failed")

func (a *app) newLookupCmd() *cobra.Command {
	var uf string

	cmd := &cobra.Command{
		Use:   "lookup --uf UF <full name>",
		Short: "Run one registry lookup and print the record as JSON",
		Example: `  oab lookup --uf SP "Maria Souza"
  OAB_HEADLESS=false oab lookup --uf MS João da Silva`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger(a.cfg.Log, a.stderr)

			sc := scraper.NewFromConfig(a.cfg, metrics.New())
			res := sc.Lookup(cmd.Context(), strings.Join(args, " "), models.NormalizeRegion(uf))

			out := models.LookupResponse{}
			if res.Err != nil {
				out.Error = res.Err.Message
			} else {
				out = models.NewLookupResponse(res.Record)
			}

			enc := json.NewEncoder(a.stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if res.Err != nil {
				return errLookupFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&uf, "uf", "", "seccional, e.g. SP (required)")
	_ = cmd.MarkFlagRequired("uf")
	return cmd
}
