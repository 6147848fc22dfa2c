package commands

import (
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/internal/spreadsheet"
	"sjsage522/carsales/services/updater"

	"github.com/spf13/cobra"
)

func newChinaCmd(a *app) *cobra.Command {
	var (
		sheet   string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "china <excel_file> <year_month> <url>",
		Short: "Adds one month of China brand sales to a workbook.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := sales.ParseYearMonth(args[1])
			if err != nil {
				return a.invalid(cmd.Name(), err)
			}
			brands, err := a.brands(cmd.Name(), scraper.RegionChina)
			if err != nil {
				return err
			}

			s := scraper.NewChinaScraper(a.base(args[2]), month, a.cfg.ChinaTableSelector, brands)
			return a.run(cmd, s, updater.Request{
				Path:   a.cfg.ResolvePath(args[0]),
				Sheet:  sheet,
				Layout: spreadsheet.BrandLayout(),
				Policy: policyFor(replace, sales.KeepExisting),
			})
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", a.cfg.DefaultSheet, "The sheet to update.")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite existing values of the month.")
	return cmd
}

// policyFor returns ReplaceMonths when replace is set, otherwise fallback
func policyFor(replace bool, fallback sales.Policy) sales.Policy {
	if replace {
		return sales.ReplaceMonths
	}
	return fallback
}
