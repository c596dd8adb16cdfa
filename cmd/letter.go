package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/emrgen/lexicon/internal/indexer"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var letterCmd = &cobra.Command{
	Use:   "letter",
	Short: "alphabetic index commands",
}

func init() {
	letterCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	letterCmd.AddCommand(listLetterCmd())
	letterCmd.AddCommand(bucketCmd())
}

func listLetterCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "word count per letter",
		Run: func(cmd *cobra.Command, args []string) {
			withService(func(ctx context.Context, deps *server.Deps) error {
				counts, err := deps.Service.LetterIndex(ctx)
				if err != nil {
					return err
				}
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Letter", "Words"})
				for _, c := range counts {
					table.Append([]string{c.Letter, strconv.FormatInt(c.Count, 10)})
				}
				table.Render()
				return nil
			})
		},
	}

	return command
}

func bucketCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "bucket <term>...",
		Short:   "show the letter bucket of terms",
		Example: "lexicon letter bucket ñaari ngor ŋaaw",
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, term := range args {
				bucket := indexer.BucketOf(indexer.Normalize(term))
				if bucket == "" {
					color.Yellow("%s: no bucket", term)
					continue
				}
				printField(term, bucket)
			}
		},
	}

	return command
}
