// apps/party-server/internal/config/config.go
//
// Runtime configuration.
// Values come from (highest priority first):
//   1. process environment (ROOMS_MAX_PLAYERS, DICTIONARY_API_KEY, ...);
//   2. a .env file in the working directory (development convenience);
//   3. the defaults below.
//
// Keys are dotted in code ("rooms.max_players") and upper-snake in the
// environment ("ROOMS_MAX_PLAYERS").

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/robalobadob/wordle/apps/party-server/internal/gateway"
	"github.com/robalobadob/wordle/apps/party-server/internal/room"
)

type Config struct {
	Port            string        `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	Env             string        `mapstructure:"app_env"`
	ClientOrigin    string        `mapstructure:"client_origin"`
	DBPath          string        `mapstructure:"db_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Words      WordsConfig      `mapstructure:"words"`
	Rooms      RoomsConfig      `mapstructure:"rooms"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	WS         WSConfig         `mapstructure:"ws"`
}

type DictionaryConfig struct {
	RandomWordURL string        `mapstructure:"random_word_url"`
	LookupURL     string        `mapstructure:"lookup_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type WordsConfig struct {
	AnswersFile string `mapstructure:"answers_file"`
	AllowedFile string `mapstructure:"allowed_file"`
}

type RoomsConfig struct {
	MaxPlayers       int           `mapstructure:"max_players"`
	WordsPerGame     int           `mapstructure:"words_per_game"`
	GameDuration     time.Duration `mapstructure:"game_duration"`
	InitialTimeout   time.Duration `mapstructure:"initial_timeout"`
	ActiveTimeout    time.Duration `mapstructure:"active_timeout"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	WordFetchTimeout time.Duration `mapstructure:"word_fetch_timeout"`
}

type RateLimitConfig struct {
	Window   time.Duration `mapstructure:"window"`
	Max      int           `mapstructure:"max"`
	WSWindow time.Duration `mapstructure:"ws_window"`
	WSMax    int           `mapstructure:"ws_max"`
	EntryTTL time.Duration `mapstructure:"entry_ttl"`
}

type WSConfig struct {
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool { return c.Env == "production" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("app_env", "development")
	v.SetDefault("client_origin", "http://localhost:5173")
	v.SetDefault("db_path", "")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("dictionary.random_word_url", "https://api.wordnik.com/v4/words.json/randomWord")
	v.SetDefault("dictionary.lookup_url", "https://api.dictionaryapi.dev/api/v2/entries/en")
	v.SetDefault("dictionary.api_key", "")
	v.SetDefault("dictionary.timeout", 5*time.Second)

	v.SetDefault("words.answers_file", "")
	v.SetDefault("words.allowed_file", "")

	rooms := room.DefaultConfig()
	v.SetDefault("rooms.max_players", rooms.MaxPlayers)
	v.SetDefault("rooms.words_per_game", rooms.WordsPerGame)
	v.SetDefault("rooms.game_duration", rooms.GameDuration)
	v.SetDefault("rooms.initial_timeout", rooms.InitialTimeout)
	v.SetDefault("rooms.active_timeout", rooms.ActiveTimeout)
	v.SetDefault("rooms.sweep_interval", rooms.SweepInterval)
	v.SetDefault("rooms.tick_interval", rooms.TickInterval)
	v.SetDefault("rooms.word_fetch_timeout", rooms.WordFetchTimeout)

	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.ws_window", 10*time.Second)
	v.SetDefault("rate_limit.ws_max", 40)
	v.SetDefault("rate_limit.entry_ttl", 30*time.Minute)

	ws := gateway.DefaultConfig()
	v.SetDefault("ws.ping_period", ws.PingPeriod)
	v.SetDefault("ws.pong_wait", ws.PongWait)
	v.SetDefault("ws.write_timeout", ws.WriteTimeout)
	v.SetDefault("ws.max_message_size", ws.MaxMessageSize)
	v.SetDefault("ws.send_buffer", ws.SendBuffer)
}

// Load reads .env (if present) and the environment into a Config.
func Load() (Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.Rooms.MaxPlayers < 1 {
		errs = append(errs, errors.New("rooms.max_players must be at least 1"))
	}
	if c.Rooms.WordsPerGame < 1 {
		errs = append(errs, errors.New("rooms.words_per_game must be at least 1"))
	}
	if c.Rooms.GameDuration <= 0 || c.Rooms.TickInterval <= 0 || c.Rooms.SweepInterval <= 0 {
		errs = append(errs, errors.New("rooms durations must be positive"))
	}
	if c.Rooms.InitialTimeout <= 0 || c.Rooms.ActiveTimeout <= 0 || c.Rooms.WordFetchTimeout <= 0 {
		errs = append(errs, errors.New("rooms timeouts must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.Max < 1 {
		errs = append(errs, errors.New("rate_limit.window and rate_limit.max must be positive"))
	}
	if c.RateLimit.WSWindow <= 0 || c.RateLimit.WSMax < 1 {
		errs = append(errs, errors.New("rate_limit.ws_window and rate_limit.ws_max must be positive"))
	}
	if c.RateLimit.EntryTTL <= 0 {
		errs = append(errs, errors.New("rate_limit.entry_ttl must be positive"))
	}
	if c.WS.PingPeriod <= 0 || c.WS.PongWait <= 0 || c.WS.WriteTimeout <= 0 {
		errs = append(errs, errors.New("ws.ping_period, ws.pong_wait and ws.write_timeout must be positive"))
	} else if c.WS.PingPeriod >= c.WS.PongWait {
		errs = append(errs, errors.New("ws.ping_period must be shorter than ws.pong_wait"))
	}
	if c.WS.MaxMessageSize < 1 || c.WS.SendBuffer < 1 {
		errs = append(errs, errors.New("ws.max_message_size and ws.send_buffer must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
