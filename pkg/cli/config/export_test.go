package config

import "time"

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(signingSecret string, timeout time.Duration) *Slack {
	return &Slack{
		signingSecret: signingSecret,
		timeout:       timeout,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProject string) *LLM {
	return &LLM{
		provider:      provider,
		geminiProject: geminiProject,
		timeout:       time.Second,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath string) *Repository {
	return &Repository{
		backend:    backend,
		sqlitePath: sqlitePath,
	}
}

// NewPipelineForTest creates a Pipeline config for testing purposes
func NewPipelineForTest(workers, queueSize int, timeout time.Duration) *Pipeline {
	return &Pipeline{
		workers:   workers,
		queueSize: queueSize,
		timeout:   timeout,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(path string) *App {
	return &App{path: path}
}
