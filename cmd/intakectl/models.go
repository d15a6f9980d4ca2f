package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rcm-webdev/insight-lens/internal/catalog"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var (
		fixture  string
		category string
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if fixture == "" && cfg != nil {
				fixture = cfg.Catalog.FixturePath
			}

			provider := catalog.DefaultProvider()
			if fixture != "" {
				if provider, err = catalog.LoadYAMLFile(fixture); err != nil {
					return err
				}
			}
			cat := catalog.New(provider)

			list := cat.ListModels()
			if category != "" {
				t := models.ModelType(category)
				if !t.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				list = list[:0:0]
				for _, m := range cat.ListModels() {
					if m.Type == t {
						list = append(list, m)
					}
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tVERSION\tSTATUS\tINPUT")
			for _, m := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%dx%d\n",
					m.ID, m.Name, m.Type, m.Version, m.Status, m.InputSize.Width, m.InputSize.Height)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&fixture, "catalog", "", "catalog YAML file (defaults to the built-in catalog)")
	cmd.Flags().StringVar(&category, "category", "", "only list models of this type")

	return cmd
}
