package commands

import (
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/internal/spreadsheet"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/cache"
	"sjsage522/carsales/services/updater"

	"github.com/spf13/cobra"
)

func newEuropeCmd(a *app) *cobra.Command {
	var (
		sheet       string
		seriesSheet string
		page        int
		unitsField  int
		replace     bool
	)

	cmd := &cobra.Command{
		Use:   "europe <excel_file> <year_month> <url>",
		Short: "Adds the manufacturer table of an ACEA press release PDF to a workbook.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := sales.ParseYearMonth(args[1])
			if err != nil {
				return a.invalid(cmd.Name(), err)
			}
			if sheet == "" {
				sheet = month.String()
			}
			brands, err := a.brands(cmd.Name(), scraper.RegionEurope)
			if err != nil {
				return err
			}

			documents, err := cache.NewFileCache(a.cfg.PDFDir)
			if err != nil {
				return a.fail(cmd.Name(), apperrors.NewCache(scraper.RegionEurope, "failed to open PDF directory", err))
			}

			s := scraper.NewEuropeScraper(a.base(args[2]), month, page, unitsField, brands, documents)
			return a.run(cmd, s, updater.Request{
				Path:          a.cfg.ResolvePath(args[0]),
				Sheet:         seriesSheet,
				Layout:        spreadsheet.BrandLayout(),
				Policy:        policyFor(replace, sales.KeepExisting),
				SnapshotSheet: sheet,
			})
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "The snapshot sheet name, YYYY-MM of the month by default.")
	cmd.Flags().StringVar(&seriesSheet, "series-sheet", a.cfg.DefaultSheet, "The brand sheet to merge the month into; empty to skip.")
	cmd.Flags().IntVar(&page, "page", a.cfg.EuropePage, "The PDF page holding the manufacturer table.")
	cmd.Flags().IntVar(&unitsField, "units-field", a.cfg.EuropeUnitsField, "Which whole number of a row is the month's units, counting from 0.")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite existing values of the month.")
	return cmd
}
