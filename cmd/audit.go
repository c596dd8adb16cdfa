package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/lexicon/internal/server"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var kind, id string

	command := &cobra.Command{
		Use:     "history",
		Short:   "show the contribution ledger of a record",
		Example: "lexicon history -k word -i <word-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"kind", "id"}) {
				return
			}
			k, err := parseKind(kind)
			if err != nil {
				color.Red("%v", err)
				return
			}

			withService(func(ctx context.Context, deps *server.Deps) error {
				entries, err := deps.Service.History(ctx, service.EntityRef{Type: k, ID: id})
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Seq", "Contribution", "Action", "User", "At", "Metadata"})
				for _, e := range entries {
					table.Append([]string{
						strconv.FormatInt(e.Seq, 10),
						e.ID,
						string(e.Action),
						e.UserID,
						e.CreatedAt.Format("2006-01-02 15:04:05"),
						string(e.Metadata),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "", "record kind (required)")
	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")

	return command
}

func revertCmd() *cobra.Command {
	var kind, id, contributionID string
	var useNew bool
	var version int64

	command := &cobra.Command{
		Use:     "revert",
		Short:   "restore the content a contribution replaced",
		Example: "lexicon revert -k word -i <word-id> -c <contribution-id> -v <version>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, []string{"kind", "id", "contribution"}) {
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
				e, err := deps.Service.RevertEntity(ctx, actor, service.EntityRef{Type: k, ID: id}, contributionID, useNew, version)
				if err != nil {
					return err
				}
				printEntities(e)
				return nil
			})
		},
	}

	command.Flags().StringVarP(&kind, "kind", "k", "", "record kind (required)")
	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")
	command.Flags().StringVarP(&contributionID, "contribution", "c", "", "contribution id (required)")
	command.Flags().BoolVar(&useNew, "new", false, "restore the value the contribution wrote instead of the one it replaced")
	command.Flags().Int64VarP(&version, "version", "v", service.AnyVersion, "expected version")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func auditCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "audit",
		Short: "check the stored data against the dictionary invariants",
		Run: func(cmd *cobra.Command, args []string) {
			withService(func(ctx context.Context, deps *server.Deps) error {
				report, err := deps.Audit.Audit(ctx)
				if err != nil {
					return err
				}

				printField("Scanned words", strconv.Itoa(report.ScannedWords))
				if report.Clean() {
					color.Green("no violation")
					return nil
				}

				if len(report.BucketMismatches) > 0 {
					table := tablewriter.NewWriter(os.Stdout)
					table.SetHeader([]string{"Word", "Term", "Stored", "Want"})
					for _, m := range report.BucketMismatches {
						table.Append([]string{m.WordID, m.Term, m.Stored, m.Want})
					}
					table.Render()
				}
				if len(report.CategoryViolations) > 0 {
					color.Red("words without exactly one main category: %s", strings.Join(report.CategoryViolations, ", "))
				}
				if len(report.DanglingSynonyms) > 0 {
					table := tablewriter.NewWriter(os.Stdout)
					table.SetHeader([]string{"Edge", "Word", "Synonym"})
					for _, edge := range report.DanglingSynonyms {
						table.Append([]string{edge.ID, edge.WordID, edge.SynonymID})
					}
					table.Render()
					color.Red("ineligible words: %s", strings.Join(report.IneligibleWords, ", "))
				}
				return nil
			})
		},
	}

	return command
}
