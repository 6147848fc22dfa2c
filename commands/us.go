package commands

import (
	"fmt"
	"time"

	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/internal/spreadsheet"
	"sjsage522/carsales/services/updater"

	"github.com/spf13/cobra"
)

func newUSCmd(a *app) *cobra.Command {
	var (
		sheet string
		year  int
		url   string
		keep  bool
	)

	cmd := &cobra.Command{
		Use:   "us <excel_file>",
		Short: "Overwrites the months of a year in a workbook with US brand sales.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if year < 1900 || year > 9999 {
				return a.invalid(cmd.Name(), fmt.Errorf("year %d out of range", year))
			}
			if url == "" {
				url = scraper.USPageURL(a.cfg.USURLTemplate, year)
			}
			brands, err := a.brands(cmd.Name(), scraper.RegionUS)
			if err != nil {
				return err
			}

			policy := sales.ReplaceMonths
			if keep {
				policy = sales.KeepExisting
			}

			s := scraper.NewUSScraper(a.base(url), year, a.cfg.USTableSelector, brands)
			return a.run(cmd, s, updater.Request{
				Path:   a.cfg.ResolvePath(args[0]),
				Sheet:  sheet,
				Layout: spreadsheet.USLayout(),
				Policy: policy,
			})
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", a.cfg.DefaultSheet, "The sheet to update.")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "The year to fetch.")
	cmd.Flags().StringVar(&url, "url", "", "The brand sales page, derived from US_URL_TEMPLATE by default.")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep existing values instead of replacing the fetched months.")
	return cmd
}
