// Package config loads the peer and hub settings from flags, LAMLOCK_*
// environment variables and an optional YAML file, in that precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "LAMLOCK"

type Config struct {
	Group    string `mapstructure:"group" validate:"required"`
	Name     string `mapstructure:"name"`
	Behavior string `mapstructure:"behavior" validate:"oneof=ACTIVE PASSIVE"`

	HubAddr    string `mapstructure:"hub_addr" validate:"required"`
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
	HTTPAddr   string `mapstructure:"http_addr"`

	ReceiveTimeout    time.Duration `mapstructure:"receive_timeout" validate:"gt=0"`
	SuspectAfter      time.Duration `mapstructure:"suspect_after" validate:"gtfield=ReceiveTimeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"gte=0"`
	HeartbeatGrace    time.Duration `mapstructure:"heartbeat_grace" validate:"omitempty,gtfield=HeartbeatInterval"`
	MaxHold           time.Duration `mapstructure:"max_hold" validate:"gt=0"`

	JournalPath string `mapstructure:"journal_path"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogDev      bool   `mapstructure:"log_dev"`
}

func Default() Config {
	return Config{
		Group:             "proc",
		Behavior:          "ACTIVE",
		HubAddr:           "localhost:7400",
		ListenAddr:        ":7400",
		HTTPAddr:          "",
		ReceiveTimeout:    3 * time.Second,
		SuspectAfter:      6 * time.Second,
		HeartbeatInterval: time.Second,
		HeartbeatGrace:    5 * time.Second,
		MaxHold:           2 * time.Second,
		LogLevel:          "info",
	}
}

// BindFlags registers one flag per setting, named like the key with dashes,
// and binds them into v.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	d := Default()
	flags.String("group", d.Group, "peer group to join")
	flags.String("name", d.Name, "human readable peer name")
	flags.String("behavior", d.Behavior, "ACTIVE requests the critical section, PASSIVE only serves")
	flags.String("hub-addr", d.HubAddr, "gRPC address of the hub")
	flags.String("listen-addr", d.ListenAddr, "gRPC listen address of the hub")
	flags.String("http-addr", d.HTTPAddr, "address for /metrics and /healthz, empty disables")
	flags.Duration("receive-timeout", d.ReceiveTimeout, "bound of a single receive")
	flags.Duration("suspect-after", d.SuspectAfter, "wait after which silent peers are suspected")
	flags.Duration("heartbeat-interval", d.HeartbeatInterval, "membership lease renewal interval")
	flags.Duration("heartbeat-grace", d.HeartbeatGrace, "membership lease on the hub, 0 disables expiry")
	flags.Duration("max-hold", d.MaxHold, "upper bound of a random critical section hold")
	flags.String("journal-path", d.JournalPath, "bbolt file recording critical section intervals")
	flags.String("log-level", d.LogLevel, "debug, info, warn or error")
	flags.Bool("log-dev", d.LogDev, "human readable development logging")

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		err = errors.Join(err, v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f))
	})
	return err
}

// Load reads the settings bound into v. A non-empty path names a YAML file
// whose values sit below flags and environment.
func Load(v *viper.Viper, path string) (Config, error) {
	d := Default()
	v.SetDefault("group", d.Group)
	v.SetDefault("behavior", d.Behavior)
	v.SetDefault("hub_addr", d.HubAddr)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("http_addr", d.HTTPAddr)
	v.SetDefault("receive_timeout", d.ReceiveTimeout)
	v.SetDefault("suspect_after", d.SuspectAfter)
	v.SetDefault("heartbeat_interval", d.HeartbeatInterval)
	v.SetDefault("heartbeat_grace", d.HeartbeatGrace)
	v.SetDefault("max_hold", d.MaxHold)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("name", d.Name)
	v.SetDefault("journal_path", d.JournalPath)
	v.SetDefault("log_dev", d.LogDev)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Behavior = strings.ToUpper(cfg.Behavior)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// use the config key in error messages
		return fld.Tag.Get("mapstructure")
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var errs []error
	for _, e := range verrs {
		errs = append(errs, fmt.Errorf(`key="%s", value="%v", failed "%s" validation`, e.Field(), e.Value(), e.ActualTag()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
