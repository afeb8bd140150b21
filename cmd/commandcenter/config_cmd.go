package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"commandcenter/internal/config"
)

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path != "" {
		fmt.Fprintf(out, "# %s\n", path)
	} else {
		fmt.Fprintln(out, "# defaults (no config file found)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
