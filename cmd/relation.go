package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var synonymCmd = &cobra.Command{
	Use:   "synonym",
	Short: "synonym commands",
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "category commands",
}

func init() {
	synonymCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	synonymCmd.AddCommand(linkSynonymCmd())
	synonymCmd.AddCommand(unlinkSynonymCmd())
	synonymCmd.AddCommand(listSynonymCmd())

	categoryCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	categoryCmd.AddCommand(createCategoryCmd())
	categoryCmd.AddCommand(listCategoryCmd())
	categoryCmd.AddCommand(assignCategoryCmd())
	categoryCmd.AddCommand(unassignCategoryCmd())
}

func linkSynonymCmd() *cobra.Command {
	var req synonym.LinkRequest
	var language string

	command := &cobra.Command{
		Use:     "link",
		Short:   "link two words as synonyms",
		Example: "lexicon synonym link -w <word-id> -s <synonym-id> --strength 7 --language wolof",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id", "synonym-id"}) {
				return
			}
			req.Language = model.Language(language)

			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				edge, err := deps.Service.LinkSynonyms(ctx, actor, req)
				if err != nil {
					return err
				}
				color.Green("linked %s and %s (%s)", edge.WordID, edge.SynonymID, edge.ID)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&req.WordID, "word-id", "w", "", "word id (required)")
	command.Flags().StringVarP(&req.SynonymID, "synonym-id", "s", "", "synonym word id (required)")
	command.Flags().IntVar(&req.Strength, "strength", 5, "strength from 1 to 10")
	command.Flags().StringVar(&language, "language", string(model.LanguageWolof), "wolof or français")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func unlinkSynonymCmd() *cobra.Command {
	var wordID, synonymID string

	command := &cobra.Command{
		Use:   "unlink",
		Short: "remove a synonym link",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id", "synonym-id"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				if err = deps.Service.UnlinkSynonyms(ctx, actor, wordID, synonymID); err != nil {
					return err
				}
				color.Green("unlinked %s and %s", wordID, synonymID)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")
	command.Flags().StringVarP(&synonymID, "synonym-id", "s", "", "synonym word id (required)")
	bindContextFlags(command)

	return command
}

func listSynonymCmd() *cobra.Command {
	var wordID string

	command := &cobra.Command{
		Use:   "list",
		Short: "list the synonyms of a word",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				neighbors, err := deps.Service.Synonyms(ctx, wordID)
				if err != nil {
					return err
				}
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Edge", "Word", "Strength", "Language"})
				for _, n := range neighbors {
					table.Append([]string{n.EdgeID, n.WordID, strconv.Itoa(n.Strength), string(n.Language)})
				}
				table.Render()
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")

	return command
}

func createCategoryCmd() *cobra.Command {
	var name, description string

	command := &cobra.Command{
		Use:   "create",
		Short: "create a category, moderators only",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"name"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				c, err := deps.Service.CreateCategory(ctx, actor, name, description)
				if err != nil {
					return err
				}
				printCategories(c)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&name, "name", "n", "", "name (required)")
	command.Flags().StringVarP(&description, "description", "d", "", "description")
	bindContextFlags(command)

	return command
}

func listCategoryCmd() *cobra.Command {
	var wordID string

	command := &cobra.Command{
		Use:   "list",
		Short: "list the categories, or the assignments of a word",
		Run: func(cmd *cobra.Command, args []string) {
			withService(func(ctx context.Context, deps *server.Deps) error {
				if wordID == "" {
					categories, err := deps.Service.ListCategories(ctx)
					if err != nil {
						return err
					}
					printCategories(categories...)
					return nil
				}

				assignments, err := deps.Service.Categories(ctx, wordID)
				if err != nil {
					return err
				}
				printAssignments(assignments)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id")

	return command
}

func assignCategoryCmd() *cobra.Command {
	var wordID, categoryID string
	var isMain bool

	command := &cobra.Command{
		Use:   "assign",
		Short: "assign a category to a word",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id", "category-id"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				assignments, err := deps.Service.AssignCategory(ctx, actor, wordID, categoryID, isMain)
				if err != nil {
					return err
				}
				printAssignments(assignments)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")
	command.Flags().StringVarP(&categoryID, "category-id", "c", "", "category id (required)")
	command.Flags().BoolVar(&isMain, "main", false, "make it the main category")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func unassignCategoryCmd() *cobra.Command {
	var wordID, categoryID string

	command := &cobra.Command{
		Use:   "unassign",
		Short: "remove a category from a word",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"word-id", "category-id"}) {
				return
			}
			withService(func(ctx context.Context, deps *server.Deps) error {
				actor, err := currentActor(cmd)
				if err != nil {
					return err
				}
				assignments, err := deps.Service.UnassignCategory(ctx, actor, wordID, categoryID)
				if err != nil {
					return err
				}
				printAssignments(assignments)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&wordID, "word-id", "w", "", "word id (required)")
	command.Flags().StringVarP(&categoryID, "category-id", "c", "", "category id (required)")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func printCategories(categories ...*model.Category) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Description"})
	for _, c := range categories {
		table.Append([]string{c.ID, c.Name, c.Description})
	}
	table.Render()
}

func printAssignments(assignments []*model.WordCategory) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Main", "Assigned"})
	for _, a := range assignments {
		isMain := ""
		if a.IsMainCategory {
			isMain = color.GreenString("main")
		}
		table.Append([]string{a.CategoryID, isMain, a.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()
}
