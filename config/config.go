package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Storage   Storage   `yaml:"storage"`
	Transcode Transcode `yaml:"transcode"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type Database struct {
	// Driver selects the gorm dialector: "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Storage struct {
	// UploadDir holds raw uploads before transcoding.
	UploadDir string `yaml:"upload_dir"`
	// MediaDir holds the playable files served to clients.
	MediaDir string `yaml:"media_dir"`
}

type Transcode struct {
	Enabled    bool   `yaml:"enabled"`
	FFmpegBin  string `yaml:"ffmpeg_bin"`
	FFprobeBin string `yaml:"ffprobe_bin"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("app.environment", "develop")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.workers", 2)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "videohub.db")
	viper.SetDefault("storage.upload_dir", "videos")
	viper.SetDefault("storage.media_dir", "static")
	viper.SetDefault("transcode.enabled", true)
	viper.SetDefault("transcode.ffmpeg_bin", "ffmpeg")
	viper.SetDefault("transcode.ffprobe_bin", "ffprobe")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Database: Database{
			Driver: viper.GetString("database.driver"),
			DSN:    viper.GetString("database.dsn"),
		},
		Storage: Storage{
			UploadDir: viper.GetString("storage.upload_dir"),
			MediaDir:  viper.GetString("storage.media_dir"),
		},
		Transcode: Transcode{
			Enabled:    viper.GetBool("transcode.enabled"),
			FFmpegBin:  viper.GetString("transcode.ffmpeg_bin"),
			FFprobeBin: viper.GetString("transcode.ffprobe_bin"),
		},
	}, nil
}
