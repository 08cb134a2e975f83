package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moldcrm/agent/pkg/agent/suggest"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Print query suggestions for the current context",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := buildCatalog()
			if err != nil {
				return err
			}
			engine := suggest.NewEngine(catalog)
			d := suggest.Descriptor{
				View:      viper.GetString("view"),
				LeadCount: -1,
			}
			for _, s := range engine.Suggest(d) {
				fmt.Println(s)
			}
			return nil
		},
	}
	cmd.Flags().String("view", "", "current UI view (leads|deals|contacts|pipeline)")
	_ = viper.BindPFlag("view", cmd.Flags().Lookup("view"))
	return cmd
}
