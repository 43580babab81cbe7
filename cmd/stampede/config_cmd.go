package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stampede-db/stampede/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage local stampede configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .stampede.yml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		path, err := config.NewLoader(workDir).Init()
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Printf("✓ ")
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		cfg, err := config.NewLoader(workDir).Load()
		if err != nil {
			return err
		}
		// Never echo credentials.
		cfg.Database.Password = ""

		content, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(content))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
