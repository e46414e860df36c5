package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"opendub/internal/dubbing"
	langpkg "opendub/internal/language"
	"opendub/internal/logging"
	"opendub/internal/media/ffmpeg"
	"opendub/internal/media/ffprobe"
	"opendub/internal/services"
	"opendub/internal/tts"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var target, region, engineName string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured text-to-speech engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if engineName != "" {
				cfg.TTS.Engine = strings.TrimSpace(engineName)
			}
			lang := strings.TrimSpace(target)
			if lang == "" {
				lang = cfg.Dubbing.TargetLanguage
			}
			if lang == "" {
				return services.Wrap(services.ErrValidation, "cli", "voices", "a target language is required (-t)", nil)
			}

			tool := ffmpeg.New(cfg.FFmpegBinary(), ffprobe.NewProber(cfg.FFprobeBinary()), logging.NewNop())
			engine, err := dubbing.NewTTSEngine(cfg, tool)
			if err != nil {
				return err
			}
			voices, err := engine.Voices(cmd.Context(), lang)
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "cli", engine.Name(), "could not list voices", err)
			}
			if region != "" {
				voices, err = tts.RegionVoices(voices, region)
				if err != nil {
					return services.Wrap(services.ErrInvalidLanguageTTS, "cli", engine.Name(),
						fmt.Sprintf("no %s voices for region %q", lang, region), err)
				}
			}
			if asJSON {
				return writeJSON(cmd, voices)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(voices))
			for _, v := range voices {
				rows = append(rows, []string{v.Name, v.Gender, v.Region})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Voice", "Gender", "Region"}, rows, nil))
			fmt.Fprintf(out, "%d %s voices from %s\n", len(voices), langpkg.DisplayName(lang), engine.Name())
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "target-language", "t", "", "Language to list voices for")
	cmd.Flags().StringVar(&region, "region", "", "Only voices whose region ends with this value")
	cmd.Flags().StringVar(&engineName, "tts", "", "Text-to-speech engine (openai, api, cli)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
