package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"opendub/internal/config"
	"opendub/internal/dubbing"
	"opendub/internal/logging"
	"opendub/internal/preflight"
	"opendub/internal/services"
	"opendub/internal/stageexec"
	"opendub/internal/utterance"
)

type dubFlags struct {
	input          string
	output         string
	source         string
	target         string
	region         string
	ttsEngine      string
	sttEngine      string
	translator     string
	update         bool
	edits          string
	originalSubs   bool
	dubbedSubs     bool
	cleanIntermeds bool
}

func newDubCommand(ctx *commandContext) *cobra.Command {
	var flags dubFlags

	cmd := &cobra.Command{
		Use:   "dub",
		Short: "Dub a video or update a previous run",
		Example: `  opendub dub -i talk.mp4 -t cat
  opendub dub -o output -t cat --update --edits edits.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDubOverrides(cmd, cfg, flags); err != nil {
				return err
			}
			if err := preflight.Validate(cfg, flags.input, flags.update); err != nil {
				return err
			}

			var edits []utterance.Edit
			if flags.edits != "" {
				if !flags.update {
					return services.Wrap(services.ErrValidation, "cli", "edits", "--edits requires --update", nil)
				}
				edits, err = utterance.LoadEdits(flags.edits)
				if err != nil {
					return services.Wrap(services.ErrValidation, "cli", "edits", "could not read edit directives", err)
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			comp, closeFn, err := dubbing.BuildComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			var progress func(stage string, done, total int)
			if errOut := cmd.ErrOrStderr(); isTerminal(errOut) {
				bars := newStageProgress(errOut)
				defer bars.Close()
				progress = bars.Update
			}

			dubber, err := dubbing.New(dubbing.Options{
				InputFile:              flags.input,
				OutputDir:              cfg.Paths.OutputDir,
				SourceLanguage:         cfg.Dubbing.SourceLanguage,
				TargetLanguage:         cfg.Dubbing.TargetLanguage,
				TargetRegion:           cfg.Dubbing.TargetRegion,
				OriginalSubtitles:      cfg.Dubbing.OriginalSubtitles,
				DubbedSubtitles:        cfg.Dubbing.DubbedSubtitles,
				CleanIntermediateFiles: cfg.Dubbing.CleanIntermediateFiles,
				VocalsGainDB:           cfg.Dubbing.VocalsGainDB,
				Progress:               progress,
			}, comp, logger)
			if err != nil {
				return err
			}

			var result dubbing.Result
			if flags.update {
				result, err = dubber.Update(cmd.Context(), edits)
			} else {
				result, err = dubber.Dub(cmd.Context())
			}
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "Input video (.mp4)")
	f.StringVarP(&flags.output, "output", "o", "", "Output directory")
	f.StringVarP(&flags.source, "source-language", "s", "", "Source language (ISO 639-3); detected when omitted")
	f.StringVarP(&flags.target, "target-language", "t", "", "Target language (ISO 639-3)")
	f.StringVar(&flags.region, "region", "", "Restrict voices to a region, for example ES")
	f.StringVar(&flags.ttsEngine, "tts", "", "Text-to-speech engine (openai, api, cli)")
	f.StringVar(&flags.sttEngine, "stt", "", "Speech-to-text engine (whisperx, openai)")
	f.StringVar(&flags.translator, "translator", "", "Translation engine (openai, apertium)")
	f.BoolVar(&flags.update, "update", false, "Re-dub only utterances changed since the last run")
	f.StringVar(&flags.edits, "edits", "", "JSON edit directives applied before an update")
	f.BoolVar(&flags.originalSubs, "original-subtitles", false, "Embed source-language subtitles")
	f.BoolVar(&flags.dubbedSubs, "dubbed-subtitles", false, "Embed target-language subtitles")
	f.BoolVar(&flags.cleanIntermeds, "clean-intermediate-files", false, "Remove clips and intermediate mixes after the run")
	return cmd
}

func applyDubOverrides(cmd *cobra.Command, cfg *config.Config, flags dubFlags) error {
	changed := cmd.Flags().Changed
	setString := func(name string, dst *string, value string) {
		if changed(name) {
			*dst = strings.TrimSpace(value)
		}
	}
	setString("output", &cfg.Paths.OutputDir, flags.output)
	setString("source-language", &cfg.Dubbing.SourceLanguage, flags.source)
	setString("target-language", &cfg.Dubbing.TargetLanguage, flags.target)
	setString("region", &cfg.Dubbing.TargetRegion, flags.region)
	setString("tts", &cfg.TTS.Engine, flags.ttsEngine)
	setString("stt", &cfg.STT.Engine, flags.sttEngine)
	setString("translator", &cfg.Translation.Engine, flags.translator)
	if changed("original-subtitles") {
		cfg.Dubbing.OriginalSubtitles = flags.originalSubs
	}
	if changed("dubbed-subtitles") {
		cfg.Dubbing.DubbedSubtitles = flags.dubbedSubs
	}
	if changed("clean-intermediate-files") {
		cfg.Dubbing.CleanIntermediateFiles = flags.cleanIntermeds
	}
	if err := cfg.Finalize(); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "config", "invalid options", err)
	}
	if strings.TrimSpace(cfg.Dubbing.TargetLanguage) == "" {
		return services.Wrap(services.ErrValidation, "cli", "config", "a target language is required (-t)", nil)
	}
	return cfg.EnsureDirectories()
}

func printRunSummary(out io.Writer, result dubbing.Result) {
	var total time.Duration
	for _, t := range result.Timings {
		total += t.Duration
	}
	rows := make([][]string, 0, len(result.Timings))
	for _, t := range result.Timings {
		rows = append(rows, []string{
			t.Name,
			t.Duration.Round(time.Millisecond).String(),
			fmt.Sprintf("%.1f%%", stageexec.Percent(t.Duration, total)),
			formatKB(t.MaxRSSKB),
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Stage", "Duration", "Share", "Max RSS"}, rows, []columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
	fmt.Fprintf(out, "Run:        %s (%s)\n", result.RunID, result.Mode)
	fmt.Fprintf(out, "Utterances: %d (%d dubbed this run)\n", result.Utterances, result.Modified)
	if result.VideoFile != "" {
		fmt.Fprintf(out, "Video:      %s\n", result.VideoFile)
	}
	for _, s := range result.Subtitles {
		fmt.Fprintf(out, "Subtitles:  %s\n", s)
	}
}
