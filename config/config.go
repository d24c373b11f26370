package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port            int
	DataDir         string
	OpenAIAPIKey    string
	WhisperModel    string
	TranslateModel  string
	SourceLang      string
	TargetLang      string
	MaxUploadSizeMB int
	PipelineWorkers int
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "7890"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	maxUploadSizeMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "200"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	pipelineWorkers, err := strconv.Atoi(getEnv("PIPELINE_WORKERS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_WORKERS: %w", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &Config{
		Port:            port,
		DataDir:         getEnv("DATA_DIR", "/data"),
		OpenAIAPIKey:    apiKey,
		WhisperModel:    getEnv("WHISPER_MODEL", "whisper-1"),
		TranslateModel:  getEnv("TRANSLATE_MODEL", "gpt-4o-mini"),
		SourceLang:      getEnv("SOURCE_LANG", "ja"),
		TargetLang:      getEnv("TARGET_LANG", "en"),
		MaxUploadSizeMB: maxUploadSizeMB,
		PipelineWorkers: pipelineWorkers,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
