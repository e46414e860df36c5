package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	sttEngines         = []string{"whisperx", "openai"}
	translationEngines = []string{"openai", "apertium"}
	ttsEngines         = []string{"openai", "api", "cli"}
	devices            = []string{"cpu", "cuda"}
	logFormats         = []string{"console", "json"}
	logLevels          = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable. Engine credentials and language
// support are checked by preflight, where they map to distinct exit codes.
func (c *Config) Validate() error {
	if err := c.validateDubbing(); err != nil {
		return err
	}
	if err := c.validateSTT(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	if !slices.Contains(ttsEngines, c.TTS.Engine) {
		return fmt.Errorf("tts.engine must be one of %v", ttsEngines)
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must not be negative")
	}
	return c.validateLogging()
}

func (c *Config) validateDubbing() error {
	if c.Dubbing.MaxSpeed < 1 {
		return errors.New("dubbing.max_speed must be at least 1.0")
	}
	if c.Dubbing.Workers < 1 {
		return errors.New("dubbing.workers must be positive")
	}
	return nil
}

func (c *Config) validateSTT() error {
	if !slices.Contains(sttEngines, c.STT.Engine) {
		return fmt.Errorf("stt.engine must be one of %v", sttEngines)
	}
	if !slices.Contains(devices, c.STT.Device) {
		return fmt.Errorf("stt.device must be one of %v", devices)
	}
	if c.STT.CPUThreads < 0 {
		return errors.New("stt.cpu_threads must not be negative")
	}
	if c.STT.MinDurationSeconds < 0 {
		return errors.New("stt.min_duration_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if !slices.Contains(translationEngines, c.Translation.Engine) {
		return fmt.Errorf("translation.engine must be one of %v", translationEngines)
	}
	if c.Translation.Attempts < 1 {
		return errors.New("translation.attempts must be positive")
	}
	if c.Translation.RetryDelaySeconds < 0 {
		return errors.New("translation.retry_delay_seconds must not be negative")
	}
	if c.Translation.RequestsPerMinute < 0 {
		return errors.New("translation.requests_per_minute must not be negative")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return errors.New("openai.temperature must be between 0 and 2")
	}
	if c.OpenAI.TimeoutSeconds < 0 {
		return errors.New("openai.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v", logFormats)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v", logLevels)
	}
	return nil
}
