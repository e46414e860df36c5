package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"opendub/internal/config"
	"opendub/internal/logging"
	"opendub/internal/services"
	"opendub/internal/utterance"
)

func newUtterancesCommand(ctx *commandContext) *cobra.Command {
	var outputDir, target string
	var modifiedOnly, asJSON bool

	cmd := &cobra.Command{
		Use:   "utterances",
		Short: "Show the saved utterances of a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, lang, err := resolveRunLocation(cfg, outputDir, target)
			if err != nil {
				return err
			}
			store := utterance.NewStore(dir, lang, logging.NewNop())
			doc, err := store.Load(cmd.Context())
			if err != nil {
				return services.Wrap(services.ErrUpdateMissingFiles, "cli", "utterances", "no saved run in "+dir, err)
			}

			items := doc.Utterances
			if modifiedOnly {
				items = utterance.GetModified(items)
			}
			if asJSON {
				return writeJSON(cmd, items)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No utterances")
				return nil
			}
			modified := utterance.IDs(utterance.GetModified(doc.Utterances))
			rows := make([][]string, 0, len(items))
			for _, u := range items {
				_, changed := modified[u.ID]
				rows = append(rows, []string{
					strconv.Itoa(u.ID),
					fmt.Sprintf("%.2f", u.Start),
					fmt.Sprintf("%.2f", u.End),
					u.SpeakerID,
					u.AssignedVoice,
					fmt.Sprintf("%.1f", u.EffectiveSpeed()),
					yesNo(changed),
					truncate(u.TranslatedText, 48),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Start", "End", "Speaker", "Voice", "Speed", "Modified", "Translation"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d utterances, %d modified since last save (%s)\n", len(doc.Utterances), len(modified), store.Path())
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory of the run")
	cmd.Flags().StringVarP(&target, "target-language", "t", "", "Target language of the run")
	cmd.Flags().BoolVar(&modifiedOnly, "modified", false, "Only show utterances changed since the last save")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func resolveRunLocation(cfg *config.Config, outputDir, target string) (string, string, error) {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = cfg.Paths.OutputDir
	} else {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return "", "", err
		}
		dir = expanded
	}
	lang := strings.TrimSpace(target)
	if lang == "" {
		lang = cfg.Dubbing.TargetLanguage
	}
	if lang == "" {
		return "", "", services.Wrap(services.ErrValidation, "cli", "target language", "a target language is required (-t)", nil)
	}
	return dir, lang, nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
