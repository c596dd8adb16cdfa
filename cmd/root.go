package cmd

import (
	"os"

	"github.com/emrgen/lexicon/internal/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "dictionary moderation tool",
	Example: `lexicon context set -a <actor-id> -m
lexicon word create -t <term> -d <definition>
lexicon word validate -w <word-id> -v <version>
lexicon entry add -k translation -w <word-id> --text <text> --language français
lexicon synonym link -w <word-id> -s <synonym-id> --strength 7
lexicon category assign -w <word-id> -c <category-id> --main
lexicon letter list
lexicon history -k word -i <word-id>
lexicon audit`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err == nil {
			config.SetupLogging(cfg)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(wordCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(synonymCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(letterCmd)
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(revertCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
