package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the agent can call",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := buildCatalog()
			if err != nil {
				return err
			}

			if viper.GetBool("schemas") {
				for _, def := range catalog.List() {
					raw, marshalErr := json.MarshalIndent(def.Parameters, "", "  ")
					if marshalErr != nil {
						return marshalErr
					}
					fmt.Printf("%s:\n%s\n\n", def.Name, raw)
				}
				return nil
			}

			fmt.Printf("catalog %s (%d tools)\n", catalog.Version(), catalog.Len())
			for _, def := range catalog.List() {
				marker := " "
				if def.Critical {
					marker = "*"
				}
				fmt.Printf("%s %-22s %s\n", marker, def.Name, def.Description)
			}
			return nil
		},
	}
	cmd.Flags().Bool("schemas", false, "print each tool's JSON argument schema")
	_ = viper.BindPFlag("schemas", cmd.Flags().Lookup("schemas"))
	return cmd
}
