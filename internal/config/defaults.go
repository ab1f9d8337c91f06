package config

const (
	defaultDataDir     = "~/.local/share/docpress"
	defaultLogDir      = "~/.local/share/docpress/logs"
	defaultTemplateDir = "~/.local/share/docpress/templates"
	defaultOutputDir   = "~/Documents/docpress"

	defaultPollIntervalSeconds = 2
	defaultPollTimeoutSeconds  = 120
	defaultSubmitRetries       = 1
	defaultRetryBackoffSeconds = 2

	defaultDocgenTimeoutSeconds  = 120
	defaultCompileTimeoutSeconds = 120

	defaultEngine   = "docgen"
	defaultTemplate = "product-release"

	defaultHistoryRetentionDays = 90
	defaultNotifyTimeout        = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			TemplateDir: defaultTemplateDir,
			OutputDir:   defaultOutputDir,
		},
		Docgen: Docgen{
			TimeoutSeconds: defaultDocgenTimeoutSeconds,
		},
		PDFServices: PDFServices{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollTimeoutSeconds:  defaultPollTimeoutSeconds,
			SubmitRetries:       defaultSubmitRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
		},
		Texgen: Texgen{
			TectonicPath:          "tectonic",
			CompileTimeoutSeconds: defaultCompileTimeoutSeconds,
		},
		Pipeline: Pipeline{
			DefaultEngine:   defaultEngine,
			DefaultTemplate: defaultTemplate,
			Verify:          true,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobComplete:    true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
