package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDir      = "./.tmp"
	configFileName = "lexicon"
)

var (
	ActorID   string
	Moderator bool
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the acting user of local commands, saved in ./.tmp/lexicon.yml
type Context struct {
	ActorID   string `mapstructure:"actor_id"`
	Moderator bool   `mapstructure:"moderator"`
}

func setContextCommand() *cobra.Command {
	var actorID string
	var moderator bool
	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if actorID == "" {
				color.Red(`missing: --actor`)
				return
			}

			if err := writeContext(Context{ActorID: actorID, Moderator: moderator}); err != nil {
				fmt.Println("error writing config file: ", err)
			} else {
				fmt.Println("context saved")
			}
		},
	}

	command.Flags().StringVarP(&actorID, "actor", "a", "", "actor id")
	command.Flags().BoolVarP(&moderator, "moderator", "m", false, "actor can validate and reject")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			if ctx.ActorID == "" {
				color.Yellow("no context set")
				return
			}
			printField("Actor", ctx.ActorID)
			printField("Moderator", fmt.Sprint(ctx.Moderator))
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			err := os.Remove(contextFile())
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Println("error removing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func contextFile() string {
	return configDir + "/" + configFileName + ".yml"
}

func contextViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.AddConfigPath(configDir)
	v.SetConfigType("yml")
	return v
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(configDir, os.ModePerm); err != nil {
		return err
	}

	v := contextViper()
	v.Set("context.actor_id", ctx.ActorID)
	v.Set("context.moderator", ctx.Moderator)

	return v.WriteConfigAs(contextFile())
}

func readContext() Context {
	var ctx Context

	if _, err := os.Stat(contextFile()); os.IsNotExist(err) {
		return ctx
	}

	v := contextViper()
	if err := v.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
		return ctx
	}

	if err := v.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}

	return ctx
}

func bindContextFlags(command *cobra.Command) {
	command.Flags().StringVarP(&ActorID, "actor", "a", "", "actor id, defaults to the saved context")
	command.Flags().BoolVarP(&Moderator, "moderator", "m", false, "act as a moderator")
}

// currentActor merges the flags over the saved context.
func currentActor(cmd *cobra.Command) (moderation.Actor, error) {
	saved := readContext()

	actor := moderation.Actor{ID: saved.ActorID, CanModerate: saved.Moderator}
	if cmd.Flags().Changed("actor") {
		actor.ID = ActorID
	}
	if cmd.Flags().Changed("moderator") {
		actor.CanModerate = Moderator
	}
	if actor.ID == "" {
		return actor, errors.New("no actor: run `lexicon context set -a <actor-id>` or pass --actor")
	}

	return actor, nil
}
