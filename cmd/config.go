package main

import "time"

type Config struct {
	Host              string        `env:"HOST,required=true"`
	Port              int           `env:"PORT,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	JwtSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,required=true"`
	HistoryLimit      int           `env:"HISTORY_LIMIT,required=true"`
	MatchLimit        int           `env:"MATCH_LIMIT,required=true"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,required=true"`
	MediaHostURL      string        `env:"MEDIA_HOST_URL,required=true"`
}
