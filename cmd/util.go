package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/config"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// withService runs f against the configured database.
func withService(f func(ctx context.Context, deps *server.Deps) error) {
	ctx := context.Background()

	deps, err := server.Wire(ctx, config.LoadConfig())
	if err != nil {
		color.Red("setup failed: %v", err)
		return
	}
	defer deps.Close()

	if err = f(ctx, deps); err != nil {
		printError(err)
	}
}

func printError(err error) {
	if apperr.IsDomain(err) {
		color.Red("%s: %v", apperr.Code(err), err)
		return
	}
	color.Red("error: %v", err)
}

func printField(name, value string) {
	fmt.Printf("%s: %s\n", color.CyanString(name), value)
}

func statusColor(s model.ValidationStatus) string {
	switch s {
	case model.StatusValidated:
		return color.GreenString(string(s))
	case model.StatusRejected:
		return color.RedString(string(s))
	}
	return color.YellowString(string(s))
}

func printEntities(entities ...model.Moderatable) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Kind", "Summary", "Status", "Version", "Created By", "Validated By"})
	for _, e := range entities {
		base := e.Base()
		validatedBy := ""
		if base.ValidatedBy != nil {
			validatedBy = *base.ValidatedBy
		}
		table.Append([]string{base.ID, string(e.Kind()), summary(e), statusColor(base.ValidationStatus), strconv.FormatInt(base.Version, 10), base.CreatedBy, validatedBy})
	}
	table.Render()
}

func summary(e model.Moderatable) string {
	switch v := e.(type) {
	case *model.Word:
		return v.Term
	case *model.Translation:
		return fmt.Sprintf("%s (%s)", v.Text, v.Language)
	case *model.Example:
		return v.Text
	case *model.Conjugation:
		return fmt.Sprintf("%s %s: %s", v.Tense, v.Person, v.Form)
	case *model.Phrase:
		return v.Text
	}
	return ""
}

func parseKind(s string) (model.EntityType, error) {
	kind := model.EntityType(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q, want one of word, translation, example, conjugation, phrase", s)
	}
	return kind, nil
}

func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")
		_ = cmd.Usage()

		return true
	}

	return false
}

// moderationCmd builds a validate, reject or delete command. With kindFlag
// the record kind comes from --kind, otherwise it is fixed.
func moderationCmd(use, short string, act func(ctx context.Context, svc *service.ModerationService, ref service.EntityRef, version int64, cmd *cobra.Command) error, kindFlag bool, fixed model.EntityType) *cobra.Command {
	var id string
	var kind string
	var version int64

	required := []string{"id"}
	if kindFlag {
		required = append(required, "kind")
	}

	command := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			ref := service.EntityRef{Type: fixed, ID: id}
			if kindFlag {
				k, err := parseKind(kind)
				if err != nil {
					color.Red("%v", err)
					return
				}
				ref.Type = k
			}

			withService(func(ctx context.Context, deps *server.Deps) error {
				return act(ctx, deps.Service, ref, version, cmd)
			})
		},
	}

	command.Flags().StringVarP(&id, "id", "i", "", "record id (required)")
	if kindFlag {
		command.Flags().StringVarP(&kind, "kind", "k", "", "translation, example, conjugation or phrase (required)")
	}
	command.Flags().Int64VarP(&version, "version", "v", service.AnyVersion, "expected version")
	bindContextFlags(command)
	command.Flags().SortFlags = false

	return command
}

func validateAction(ctx context.Context, svc *service.ModerationService, ref service.EntityRef, version int64, cmd *cobra.Command) error {
	actor, err := currentActor(cmd)
	if err != nil {
		return err
	}
	e, err := svc.ValidateEntity(ctx, actor, ref, version)
	if err != nil {
		return err
	}
	printEntities(e)
	return nil
}

func rejectAction(ctx context.Context, svc *service.ModerationService, ref service.EntityRef, version int64, cmd *cobra.Command) error {
	actor, err := currentActor(cmd)
	if err != nil {
		return err
	}
	e, err := svc.RejectEntity(ctx, actor, ref, version)
	if err != nil {
		return err
	}
	printEntities(e)
	return nil
}

func deleteAction(ctx context.Context, svc *service.ModerationService, ref service.EntityRef, version int64, cmd *cobra.Command) error {
	actor, err := currentActor(cmd)
	if err != nil {
		return err
	}
	if err = svc.DeleteEntity(ctx, actor, ref, version); err != nil {
		return err
	}
	color.Green("deleted %s", ref)
	return nil
}
