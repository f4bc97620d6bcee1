package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
	Media  Media  `yaml:"media"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	ListenAddr       string `yaml:"listenAddr"`
	PostgresDsn      string `yaml:"postgresDsn"`
	RedisAddr        string `yaml:"redisAddr"`
	RedisDB          int    `yaml:"redisDB"`
	EnableTrace      bool   `yaml:"enableTrace"`
	TraceEndpoint    string `yaml:"traceEndpoint"`
	DefaultPageLimit int    `yaml:"defaultPageLimit"`
}

type Media struct {
	Dir string `yaml:"dir"`
}

type Auth struct {
	TokenTTLHours int `yaml:"tokenTTLHours"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}
	if config.Server.DefaultPageLimit <= 0 {
		config.Server.DefaultPageLimit = 6
	}
	if config.Media.Dir == "" {
		config.Media.Dir = "media"
	}
	if config.Auth.TokenTTLHours <= 0 {
		config.Auth.TokenTTLHours = 24 * 7
	}

	return config, nil
}

func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}
