package commands

import (
	"errors"
	"fmt"
	"os"

	"sjsage522/carsales/internal/spreadsheet"
	apperrors "sjsage522/carsales/pkg/errors"

	"github.com/spf13/cobra"
)

func newFormatCmd(a *app) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "format <excel_file>",
		Short: "Applies the display formatting of brand sheets to an existing workbook.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.ResolvePath(args[0])
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return a.fail(cmd.Name(), apperrors.NewValidation(path, "workbook does not exist"))
			}

			wb, err := spreadsheet.Open(path)
			if err != nil {
				return a.fail(cmd.Name(), err)
			}
			defer wb.Close()

			if err := wb.Format(sheet); err != nil {
				return a.fail(cmd.Name(), err)
			}
			if err := wb.Save(); err != nil {
				return a.fail(cmd.Name(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "formatted %s sheet %q\n", path, sheet)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", a.cfg.DefaultSheet, "The sheet to format.")
	return cmd
}
