package connector

import (
	"time"

	"neo4j-connector/backend/internal/graph"
)

const (
	defaultHost           = "localhost"
	defaultPort           = 7687
	defaultPingTimeout    = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Settings configures one data source.
type Settings struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Encrypted bool   `yaml:"encrypted"`
	Database  string `yaml:"database"`
	Debug     bool   `yaml:"debug"`

	// QueryTimeout bounds each statement; zero leaves statements unbounded.
	QueryTimeout   time.Duration `yaml:"queryTimeout"`
	PingTimeout    time.Duration `yaml:"pingTimeout"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// URI returns the Bolt address the settings point at.
func (s Settings) URI() string {
	return s.options().URI()
}

func (s Settings) withDefaults() Settings {
	if s.Host == "" {
		s.Host = defaultHost
	}
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.PingTimeout <= 0 {
		s.PingTimeout = defaultPingTimeout
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = defaultConnectTimeout
	}
	return s
}

func (s Settings) options() graph.Options {
	return graph.Options{
		Host:      s.Host,
		Port:      s.Port,
		Username:  s.User,
		Password:  s.Password,
		Encrypted: s.Encrypted,
		Database:  s.Database,
	}
}
