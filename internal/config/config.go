// Package config resolves clipcap settings from flags, CLIPCAP_* environment
// variables, an optional .env file and an optional clipcap.yaml.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/forPelevin/clipcap/internal/apperr"
)

const (
	EnvPrefix      = "CLIPCAP"
	ConfigBaseName = "clipcap"

	ASRWhisperCpp = "whispercpp"
	ASRHTTP       = "http"
)

// Settings is the flat, fully resolved configuration. Keys match the CLI
// flag names; the environment form is CLIPCAP_ plus the key upper-cased with
// dashes turned into underscores.
type Settings struct {
	Out      string `mapstructure:"out"`
	CacheDir string `mapstructure:"cache-dir"`

	Mode      string   `mapstructure:"mode"`
	Clips     int      `mapstructure:"clips"`
	MinSec    float64  `mapstructure:"min"`
	Clip      []string `mapstructure:"clip"`
	ClipsFile string   `mapstructure:"clips-file"`

	Ratio  string `mapstructure:"ratio"`
	Frame  string `mapstructure:"frame"`
	Canvas string `mapstructure:"canvas"`
	Fit    string `mapstructure:"fit"`

	FontName  string `mapstructure:"font-name"`
	FontSize  int    `mapstructure:"font-size"`
	FontColor string `mapstructure:"font-color"`

	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Transcript string        `mapstructure:"transcript"`

	FFmpegPath string `mapstructure:"ffmpeg"`

	ASR                 string        `mapstructure:"asr"`
	WhisperBin          string        `mapstructure:"whisper-bin"`
	WhisperModel        string        `mapstructure:"whisper-model"`
	WhisperURL          string        `mapstructure:"whisper-url"`
	WhisperAllowedHosts []string      `mapstructure:"whisper-allowed-hosts"`
	WhisperTimeout      time.Duration `mapstructure:"whisper-timeout"`
	Language            string        `mapstructure:"language"`

	YtdlpPath   string `mapstructure:"ytdlp"`
	Proxy       string `mapstructure:"proxy"`
	CookiesFile string `mapstructure:"cookies"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

// Defaults is the single source of default values; flags and viper both read
// it.
func Defaults() Settings {
	return Settings{
		Out:            "out",
		CacheDir:       ".cache",
		Mode:           "auto",
		Clips:          3,
		MinSec:         10,
		Ratio:          "original",
		Frame:          "crop",
		Fit:            "pad",
		FontName:       "Arial",
		FontSize:       24,
		FontColor:      "#FFFFFF",
		Workers:        1,
		Timeout:        3 * time.Hour,
		FFmpegPath:     "ffmpeg",
		ASR:            ASRWhisperCpp,
		WhisperBin:     ".cache/bin/whisper.cpp",
		WhisperModel:   ".cache/models/ggml-base.bin",
		WhisperTimeout: 10 * time.Minute,
		YtdlpPath:      "yt-dlp",
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML file; a missing explicit file is an
	// error. When empty, ./clipcap.yaml is used if present.
	ConfigFile string
	// EnvFile defaults to .env; a missing file is ignored.
	EnvFile string
	// Flags are bound after files and env, so explicitly set flags win.
	Flags *pflag.FlagSet
}

// Load resolves Settings. Precedence, highest first: changed flags, CLIPCAP_*
// environment (including values from the .env file), the YAML config file,
// defaults.
func Load(opts Options) (Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// best-effort: load .env if present
	_ = godotenv.Load(envFile)

	v := viper.New()
	setDefaults(v, Defaults())

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, apperr.Wrap(apperr.CodeInvalidParams, "read config "+opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(ConfigBaseName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, apperr.Wrap(apperr.CodeInvalidParams, "read config", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return Settings{}, apperr.Wrap(apperr.CodeInvalidParams, "bind flags", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, apperr.Wrap(apperr.CodeInvalidParams, "decode settings", err)
	}
	return s, s.Validate()
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("out", d.Out)
	v.SetDefault("cache-dir", d.CacheDir)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("clips", d.Clips)
	v.SetDefault("min", d.MinSec)
	v.SetDefault("clip", []string{})
	v.SetDefault("clips-file", "")
	v.SetDefault("ratio", d.Ratio)
	v.SetDefault("frame", d.Frame)
	v.SetDefault("canvas", "")
	v.SetDefault("fit", d.Fit)
	v.SetDefault("font-name", d.FontName)
	v.SetDefault("font-size", d.FontSize)
	v.SetDefault("font-color", d.FontColor)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("transcript", "")
	v.SetDefault("ffmpeg", d.FFmpegPath)
	v.SetDefault("asr", d.ASR)
	v.SetDefault("whisper-bin", d.WhisperBin)
	v.SetDefault("whisper-model", d.WhisperModel)
	v.SetDefault("whisper-url", "")
	v.SetDefault("whisper-allowed-hosts", []string{})
	v.SetDefault("whisper-timeout", d.WhisperTimeout)
	v.SetDefault("language", "")
	v.SetDefault("ytdlp", d.YtdlpPath)
	v.SetDefault("proxy", "")
	v.SetDefault("cookies", "")
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
}

// Validate checks values that do not depend on the domain packages; ratio,
// style and timestamps are validated where they are parsed.
func (s Settings) Validate() error {
	if s.Clips <= 0 {
		return apperr.New(apperr.CodeInvalidParams, "clips must be > 0")
	}
	if s.MinSec < 0 {
		return apperr.New(apperr.CodeInvalidParams, "min must be >= 0")
	}
	if s.Workers <= 0 {
		return apperr.New(apperr.CodeInvalidParams, "workers must be > 0")
	}
	if s.Timeout <= 0 {
		return apperr.New(apperr.CodeInvalidParams, "timeout must be > 0")
	}
	switch s.ASR {
	case ASRWhisperCpp, ASRHTTP:
	default:
		return apperr.Newf(apperr.CodeInvalidParams, "unsupported asr backend %q (want %s or %s)", s.ASR, ASRWhisperCpp, ASRHTTP)
	}
	return nil
}
