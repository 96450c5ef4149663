package config

const (
	defaultTempDir     = "~/.cache/cleanvid"
	defaultLogDir      = "~/.local/share/cleanvid/logs"
	defaultHistoryDB   = "~/.local/share/cleanvid/history.db"
	defaultSwearsFile  = "~/.config/cleanvid/swears.txt"
	defaultLanguage    = "eng"
	defaultPadSeconds  = 0.0
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultVideoParams = "-c:v libx264 -preset slow -crf 22"
	defaultAudioParams = "-c:a aac -ab 224k -ar 44100"

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Defaults: Defaults{
			SwearsFile:  defaultSwearsFile,
			Language:    defaultLanguage,
			PadSeconds:  defaultPadSeconds,
			VideoParams: defaultVideoParams,
			AudioParams: defaultAudioParams,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		History: History{
			Enabled: true,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
	}
}
