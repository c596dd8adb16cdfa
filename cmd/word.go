package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var wordCmd = &cobra.Command{
	Use:   "word",
	Short: "word commands",
}

func init() {
	wordCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	wordCmd.AddCommand(createWordCmd())
	wordCmd.AddCommand(getWordCmd())
	wordCmd.AddCommand(updateWordCmd())
	wordCmd.AddCommand(moderationCmd("validate", "validate a pending word", validateAction, false, model.EntityWord))
	wordCmd.AddCommand(moderationCmd("reject", "reject a pending word", rejectAction, false, model.EntityWord))
	wordCmd.AddCommand(moderationCmd("delete", "delete a word", deleteAction, false, model.EntityWord))
	wordCmd.AddCommand(listWordCmd())
}

func createWordCmd() *cobra.Command {
	var in service.WordInput

	var required = []string{"term"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a word",
		Example: "lexicon word create -t <term> -d <definition> -p <part-of-speech>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				word, err := deps.Service.CreateWord(ctx, actor, in)
				if err != nil {
					return err
				}
				printWords(word)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&in.Term, "term", "t", "", "term (required)")
	command.Flags().StringVarP(&in.Definition, "definition", "d", "", "definition")
	command.Flags().StringVarP(&in.PartOfSpeech, "part-of-speech", "p", "", "part of speech")
	command.Flags().StringVar(&in.Pronunciation, "pronunciation", "", "pronunciation")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func getWordCmd() *cobra.Command {
	var wordID string

	command := &cobra.Command{
		Use:   "get",
		Short: "get a word",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				word, err := deps.Service.GetWord(ctx, wordID)
				if err != nil {
					return err
				}
				printEntities(word)
				printField("Term", word.Term)
				printField("Bucket", word.InitialLetter)
				printField("Definition", word.Definition)
				printField("Part of speech", word.PartOfSpeech)
				printField("Pronunciation", word.Pronunciation)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")

	return command
}

func updateWordCmd() *cobra.Command {
	var wordID string
	var version int64
	var term, definition, partOfSpeech, pronunciation string

	command := &cobra.Command{
		Use:     "update",
		Short:   "update a word, it goes back to pending",
		Example: "lexicon word update -w <word-id> -v <version> -d <definition>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id"}) {
				return
			}

			var patch service.WordPatch
			if cmd.Flags().Changed("term") {
				patch.Term = &term
			}
			if cmd.Flags().Changed("definition") {
				patch.Definition = &definition
			}
			if cmd.Flags().Changed("part-of-speech") {
				patch.PartOfSpeech = &partOfSpeech
			}
			if cmd.Flags().Changed("pronunciation") {
				patch.Pronunciation = &pronunciation
			}

			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				word, err := deps.Service.UpdateWord(ctx, actor, wordID, version, patch)
				if err != nil {
					return err
				}
				printWords(word)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")
	command.Flags().Int64VarP(&version, "version", "v", service.AnyVersion, "expected version")
	command.Flags().StringVarP(&term, "term", "t", "", "term")
	command.Flags().StringVarP(&definition, "definition", "d", "", "definition")
	command.Flags().StringVarP(&partOfSpeech, "part-of-speech", "p", "", "part of speech")
	command.Flags().StringVar(&pronunciation, "pronunciation", "", "pronunciation")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func listWordCmd() *cobra.Command {
	var letter string
	var pending bool
	var offset, limit int

	command := &cobra.Command{
		Use:     "list",
		Short:   "list the words of a letter, or the pending words",
		Example: "lexicon word list -l ñ\nlexicon word list --pending",
		Run: func(cmd *cobra.Command, args []string) {
			if !pending && letter == "" {
				color.Red("missing: --letter or --pending")
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				if pending {
					items, err := deps.Service.ModerationQueue(ctx, model.EntityWord, limit)
					if err != nil {
						return err
					}
					printEntities(items...)
					return nil
				}

				words, total, err := deps.Service.ListWordsByLetter(ctx, letter, offset, limit)
				if err != nil {
					return err
				}
				printWords(words...)
				printField("Total", strconv.FormatInt(total, 10))
				return nil
			})
		},
	}

	command.Flags().StringVarP(&letter, "letter", "l", "", "letter bucket")
	command.Flags().BoolVar(&pending, "pending", false, "list the moderation queue")
	command.Flags().IntVar(&offset, "offset", 0, "offset")
	command.Flags().IntVar(&limit, "limit", 0, "page size")
	command.Flags().SortFlags = false

	return command
}

func printWords(words ...*model.Word) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Term", "Bucket", "Status", "Version"})
	for _, w := range words {
		table.Append([]string{w.ID, w.Term, w.InitialLetter, statusColor(w.ValidationStatus), strconv.FormatInt(w.Version, 10)})
	}
	table.Render()
}
