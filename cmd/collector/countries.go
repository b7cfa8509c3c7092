package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dataweb/internal/providers/dataweb"
)

func newCountriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the country codes DataWeb accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dataweb.NewWithConfig(a.cfg.Client(), a.logger)
			if err != nil {
				return err
			}
			countries, err := client.ListCountries(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(a.out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Code", "Name"})
			for _, country := range countries {
				t.AppendRow(table.Row{country.Value, country.Name})
			}
			t.Render()
			_, _ = fmt.Fprintf(a.out, "(%d countries)\n", len(countries))
			return nil
		},
	}
}
