package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"rwm/internal/storage/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings stored in config.yaml.

Besides the keys listed by 'rwm config show', path, game-path, use-pager
and paging are accepted as shorthands.

Examples:
  rwm config show
  rwm config get game_path
  rwm config set use-pager true
  rwm config set download.max_attempts 10`,
	Aliases: []string{"cfg"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// setCmd keeps the short form 'rwm set <key> <value>'
var setCmd = &cobra.Command{
	Use:    "set <key> <value>",
	Short:  "Change one setting (same as 'config set')",
	Args:   cobra.ExactArgs(2),
	Hidden: true,
	RunE:   runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd, setCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	cfg := svc.Config()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintln(w, "---\t-----")
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if key == "game_path" && svc.GameDetected() {
			value += " (detected)"
		}
		fmt.Fprintf(w, "%s\t%s\n", key, value)
	}
	fmt.Fprintf(w, "\nconfig dir\t%s\n", svc.ConfigDir())
	fmt.Fprintf(w, "steamcmd\t%s\n", svc.SteamCmdPath())
	for _, c := range svc.Registry().List() {
		fmt.Fprintf(w, "catalog\t%s (%s)\n", c.Name(), c.ID())
	}
	return w.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	value, err := svc.Config().Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	key := config.CanonicalKey(args[0])
	if err := svc.SetConfig(key, args[1]); err != nil {
		return err
	}
	if key == "game_path" {
		if _, err := os.Stat(config.ExpandHome(args[1])); err != nil {
			logger.Warn("game path does not exist yet", "path", args[1])
		}
	}
	if err := svc.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	value, _ := svc.Config().Get(key)
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
