package cmd

import (
	"context"
	"fmt"

	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "translation, example, conjugation and phrase commands",
}

func init() {
	entryCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	entryCmd.AddCommand(addEntryCmd())
	entryCmd.AddCommand(listEntryCmd())
	entryCmd.AddCommand(moderationCmd("validate", "validate a pending entry", validateAction, true, ""))
	entryCmd.AddCommand(moderationCmd("reject", "reject a pending entry", rejectAction, true, ""))
	entryCmd.AddCommand(moderationCmd("delete", "delete an entry", deleteAction, true, ""))
}

func addEntryCmd() *cobra.Command {
	var kind, wordID string
	var text, language, translation string
	var tense, person, form string
	var meaning string

	command := &cobra.Command{
		Use:   "add",
		Short: "add an entry to a word",
		Example: `lexicon entry add -k translation -w <word-id> --text aller --language français
lexicon entry add -k example -w <word-id> --text "Dama dem" --translation "je pars"
lexicon entry add -k conjugation -w <word-id> --tense present --person 1sg --form "dama dem"
lexicon entry add -k phrase --text "dem ba dem" --meaning forever`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"kind"}) {
				return
			}
			k, err := parseKind(kind)
			if err != nil {
				color.Red("%v", err)
				return
			}

			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}

				var e model.Moderatable
				switch k {
				case model.EntityTranslation:
					e, err = deps.Service.CreateTranslation(ctx, actor, service.TranslationInput{WordID: wordID, Text: text, Language: model.Language(language)})
				case model.EntityExample:
					e, err = deps.Service.CreateExample(ctx, actor, service.ExampleInput{WordID: wordID, Text: text, Translation: translation})
				case model.EntityConjugation:
					e, err = deps.Service.CreateConjugation(ctx, actor, service.ConjugationInput{WordID: wordID, Tense: tense, Person: person, Form: form})
				case model.EntityPhrase:
					in := service.PhraseInput{Text: text, Meaning: meaning}
					if wordID != "" {
						in.WordID = &wordID
					}
					e, err = deps.Service.CreatePhrase(ctx, actor, in)
				default:
					return fmt.Errorf("use `lexicon word create` for words")
				}
				if err != nil {
					return err
				}

				printEntities(e)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "", "translation, example, conjugation or phrase (required)")
	command.Flags().StringVarP(&wordID, "word-id", "w", "", "owner word id")
	command.Flags().StringVar(&text, "text", "", "text of a translation, example or phrase")
	command.Flags().StringVar(&language, "language", string(model.LanguageFrench), "translation language")
	command.Flags().StringVar(&translation, "translation", "", "translation of an example")
	command.Flags().StringVar(&tense, "tense", "", "conjugation tense")
	command.Flags().StringVar(&person, "person", "", "conjugation person")
	command.Flags().StringVar(&form, "form", "", "conjugated form")
	command.Flags().StringVar(&meaning, "meaning", "", "meaning of a phrase")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func listEntryCmd() *cobra.Command {
	var kind, wordID string

	command := &cobra.Command{
		Use:   "list",
		Short: "list the entries of a word",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"kind", "word-id"}) {
				return
			}
			k, err := parseKind(kind)
			if err != nil {
				color.Red("%v", err)
				return
			}

			withService(func(ctx context.Context, deps *server.Deps) error {
				items, err := deps.Service.ListChildren(ctx, wordID, k)
				if err != nil {
					return err
				}
				printEntities(items...)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "", "translation, example, conjugation or phrase (required)")
	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")

	return command
}
