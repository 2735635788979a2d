package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

type Config struct {
	name       string
	difficulty string
	mode       string
	relay      bool
	verbose    bool
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.name) == "" {
		return errors.New("--name must not be empty")
	}
	if _, err := game.ParseDifficulty(c.difficulty); err != nil {
		return err
	}
	if _, err := game.ParseMode(c.mode); err != nil {
		return err
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RIDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "riddle",
		Short:         "Play a riddle party from the terminal.",
		SilenceErrors: true,
		Version:       releaseVersion,
	}

	host := &cobra.Command{
		Use:   "host",
		Short: "Create a room and host it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Play(cmd.Context(), cfg, "", cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	join := &cobra.Command{
		Use:   "join ROOM_CODE",
		Short: "Join an existing room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Play(cmd.Context(), cfg, strings.ToUpper(args[0]), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(host, join)

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.name, "name", "n", "Player", "display name (env: RIDDLE_NAME)")
	fs.StringVarP(&cfg.difficulty, "difficulty", "d", "medium", "easy, medium or hard; host only (env: RIDDLE_DIFFICULTY)")
	fs.StringVarP(&cfg.mode, "mode", "m", "riddles", "riddles or guess_who; host only (env: RIDDLE_MODE)")
	fs.BoolVar(&cfg.relay, "relay", false, "run the database change relay in this process (env: RIDDLE_RELAY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log to stderr (env: RIDDLE_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("riddle v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
