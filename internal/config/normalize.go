package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDubbing()
	c.normalizeSTT()
	c.normalizeTranslation()
	c.normalizeOpenAI()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDubbing() {
	c.Dubbing.SourceLanguage = strings.ToLower(strings.TrimSpace(c.Dubbing.SourceLanguage))
	c.Dubbing.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Dubbing.TargetLanguage))
	c.Dubbing.TargetRegion = strings.TrimSpace(c.Dubbing.TargetRegion)
	if c.Dubbing.MaxSpeed == 0 {
		c.Dubbing.MaxSpeed = defaultMaxSpeed
	}
	if c.Dubbing.Workers == 0 {
		c.Dubbing.Workers = defaultWorkers
	}
}

func (c *Config) normalizeSTT() {
	c.STT.Engine = strings.ToLower(strings.TrimSpace(c.STT.Engine))
	if c.STT.Engine == "" {
		c.STT.Engine = defaultSTTEngine
	}
	c.STT.Model = strings.TrimSpace(c.STT.Model)
	if c.STT.Model == "" {
		c.STT.Model = defaultWhisperXModel
	}
	c.STT.Device = strings.ToLower(strings.TrimSpace(c.STT.Device))
	if c.STT.Device == "" {
		c.STT.Device = defaultDevice
	}
	c.STT.HuggingFaceToken = strings.TrimSpace(c.STT.HuggingFaceToken)
	if c.STT.HuggingFaceToken == "" {
		for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.STT.HuggingFaceToken = strings.TrimSpace(value)
				break
			}
		}
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Engine = strings.ToLower(strings.TrimSpace(c.Translation.Engine))
	if c.Translation.Engine == "" {
		c.Translation.Engine = defaultTranslationEngine
	}
	c.Translation.ApertiumServer = strings.TrimSpace(c.Translation.ApertiumServer)
	if c.Translation.ApertiumServer == "" {
		if value, ok := os.LookupEnv("OPENDUB_APERTIUM_SERVER"); ok {
			c.Translation.ApertiumServer = strings.TrimSpace(value)
		}
	}
	c.Translation.ApertiumServer = strings.TrimRight(c.Translation.ApertiumServer, "/")
	if c.Translation.Attempts == 0 {
		c.Translation.Attempts = defaultTranslateAttempts
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if strings.TrimSpace(c.OpenAI.ChatModel) == "" {
		c.OpenAI.ChatModel = defaultOpenAIChatModel
	}
	if strings.TrimSpace(c.OpenAI.TTSModel) == "" {
		c.OpenAI.TTSModel = defaultOpenAITTSModel
	}
	if strings.TrimSpace(c.OpenAI.STTModel) == "" {
		c.OpenAI.STTModel = defaultOpenAISTTModel
	}
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeTTS() error {
	c.TTS.Engine = strings.ToLower(strings.TrimSpace(c.TTS.Engine))
	if c.TTS.Engine == "" {
		c.TTS.Engine = defaultTTSEngine
	}
	c.TTS.APIServer = strings.TrimSpace(c.TTS.APIServer)
	if c.TTS.APIServer == "" {
		if value, ok := os.LookupEnv("OPENDUB_TTS_API_SERVER"); ok {
			c.TTS.APIServer = strings.TrimSpace(value)
		}
	}
	c.TTS.APIServer = strings.TrimRight(c.TTS.APIServer, "/")
	var err error
	if c.TTS.CLIConfig, err = expandPath(strings.TrimSpace(c.TTS.CLIConfig)); err != nil {
		return fmt.Errorf("tts.cli_config: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("OPENDUB_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
