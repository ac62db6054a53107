package config

const (
	defaultOutputDir          = "~/audiobooks"
	defaultStagingDir         = "~/.local/share/bookrip/staging"
	defaultLogDir             = "~/.local/share/bookrip/logs"
	defaultDevice             = "/dev/sr0"
	defaultBitrate            = 192
	defaultEncodeWorkers      = 4
	defaultRipTimeout         = 5400
	defaultProbeTimeout       = 30
	defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	defaultMusicBrainzAgent   = "bookrip/0.1 (https://github.com/bookrip/bookrip)"
	defaultGenre              = "Audiobook"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Rip: Rip{
			Device:        defaultDevice,
			Bitrate:       defaultBitrate,
			Mode:          ModeSplit,
			EncodeWorkers: defaultEncodeWorkers,
			RipTimeout:    defaultRipTimeout,
			ProbeTimeout:  defaultProbeTimeout,
			EjectWhenDone: true,
			AutoRip:       true,
		},
		MusicBrainz: MusicBrainz{
			AutoLookup:     true,
			BaseURL:        defaultMusicBrainzBaseURL,
			UserAgent:      defaultMusicBrainzAgent,
			TimeoutSeconds: 10,
		},
		Tags: Tags{
			Genre: defaultGenre,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Rip:            true,
			Encoding:       true,
			Completed:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			DriveReadyTimeout:  60,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
