package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [config-file]",
	Short: "Write an example configuration file",
	Long: `Write an example configuration file with every section and datasource
kind filled in, ready to edit. Refuses to overwrite an existing file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}

	if err := config.WriteExample(path); err != nil {
		return err
	}

	fmt.Printf("wrote example configuration to %s\n", path)
	return nil
}
