package cmd

import (
	"os"
	"strconv"

	"github.com/emrgen/lexicon/internal/config"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(migrateCmd())
}

func migrateCmd() *cobra.Command {
	var quiet bool

	command := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the dictionary tables",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				color.Red("config: %v", err)
				return
			}

			db, err := config.OpenDB(cfg)
			if err != nil {
				color.Red("database: %v", err)
				return
			}

			if err = model.Migrate(db); err != nil {
				color.Red("migrate: %v", err)
				return
			}
			color.Green("%s database migrated", cfg.DBDriver)

			if !quiet {
				printRecordCounts(db)
			}
		},
	}

	command.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print record counts")

	return command
}

type recordCount struct {
	Kind    model.EntityType
	Live    int64
	Deleted int64
}

// recordCounts counts live and soft deleted rows per moderatable kind.
func recordCounts(db *gorm.DB) ([]recordCount, error) {
	var counts []recordCount
	for _, kind := range model.EntityTypes() {
		e, err := model.New(kind)
		if err != nil {
			return nil, err
		}

		var live, all int64
		if err = db.Model(e).Count(&live).Error; err != nil {
			return nil, err
		}
		if err = db.Unscoped().Model(e).Count(&all).Error; err != nil {
			return nil, err
		}
		counts = append(counts, recordCount{Kind: kind, Live: live, Deleted: all - live})
	}

	return counts, nil
}

func printRecordCounts(db *gorm.DB) {
	counts, err := recordCounts(db)
	if err != nil {
		color.Red("count records: %v", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Live", "Deleted"})
	for _, c := range counts {
		table.Append([]string{string(c.Kind), strconv.FormatInt(c.Live, 10), strconv.FormatInt(c.Deleted, 10)})
	}
	table.Render()
}
