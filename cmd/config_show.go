package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ntoujavaproject/store-strategist/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")
		return writeConfigYAML(os.Stdout, cfg, reveal)
	},
}

const redacted = "<redacted>"

// writeConfigYAML prints c, masking secrets unless reveal is set.
func writeConfigYAML(w io.Writer, c *config.Config, reveal bool) error {
	out := *c
	if !reveal && out.SearchIndex.APIKey != "" {
		out.SearchIndex.APIKey = redacted
	}
	if !reveal && out.Store.DatabaseURL != "" && out.Store.Driver == "postgres" {
		out.Store.DatabaseURL = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "config show: encode")
	}
	return eris.Wrap(enc.Close(), "config show: flush")
}

func init() {
	configShowCmd.Flags().Bool("reveal", false, "print secrets instead of masking them")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
