// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"bitwise74/bboard/db"
	"bitwise74/bboard/pkg/validators"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir = pflag.String("config", ".", "Directory containing config.toml")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
	validDrivers      = []string{"sqlite", "postgres"}

	errMissingSecret = errors.New("missing secret")
)

// keys lists every setting that can be overridden from the environment.
// app.log_level is read from APP_LOG_LEVEL and so on.
var keys = []string{
	"app.log_level",
	"app.base_url",

	"host.port",
	"host.cors_origins",
	"host.ssl.enabled",
	"host.ssl.certificate_path",
	"host.ssl.certificate_key_path",

	"db.driver",
	"db.dsn",

	"security.secret_key",
	"security.jwt_secret",
	"security.rate_limit",
	"security.session_ttl",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.username",
	"mail.password",
	"mail.from",

	"storage.type",
	"storage.local_path",
	"storage.public_url",

	"aws.access_key",
	"aws.secret_access_key",
	"aws.region",
	"aws.bucket",
	"aws.endpoint",

	"upload.max_size",
	"upload.max_images",

	"listings.page_size",
	"notify.strict_comments",

	"accounts.purge_after",
	"accounts.purge_every",

	"turnstile.enabled",
	"turnstile.secret_token",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	err := load(*configDir)
	if errors.Is(err, errMissingSecret) {
		fmt.Println("WARNING: " + err.Error() + ", so a random one has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

func load(dir string) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	//
	// ENVS
	//
	for _, k := range keys {
		v.BindEnv(k, strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
	}

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "bboard.db")

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.session_ttl", "168h")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "noreply@localhost")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "media")

	v.SetDefault("upload.max_size", 5)
	v.SetDefault("upload.max_images", 10)

	v.SetDefault("listings.page_size", 2)
	v.SetDefault("notify.strict_comments", false)

	v.SetDefault("accounts.purge_after", "0s")
	v.SetDefault("accounts.purge_every", "24h")

	v.SetDefault("turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetString("security.secret_key") == "" {
		return fmt.Errorf("%w: you haven't set security.secret_key", errMissingSecret)
	}

	if v.GetString("security.jwt_secret") == "" {
		return fmt.Errorf("%w: you haven't set security.jwt_secret", errMissingSecret)
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetDuration("security.session_ttl") <= 0 {
		return errors.New("security.session_ttl must be bigger than 0")
	}

	if v.GetBool("mail.enabled") && v.GetString("mail.host") == "" {
		return errors.New("mail.host can't be empty when mail is enabled")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("aws access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("aws region can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("storage.public_url") == "" {
			return errors.New("storage.public_url is required for s3 storage")
		}
	case "local":
		if v.GetString("storage.local_path") == "" {
			return errors.New("storage.local_path can't be empty")
		}
		if v.GetString("storage.public_url") == "" {
			v.Set("storage.public_url", strings.TrimRight(v.GetString("app.base_url"), "/")+"/media")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	if v.GetInt("upload.max_images") <= 0 {
		return errors.New("upload.max_images must be bigger than 0")
	}

	if v.GetInt("listings.page_size") <= 0 {
		return errors.New("listings.page_size must be bigger than 0")
	}

	if v.GetDuration("accounts.purge_after") < 0 {
		return errors.New("accounts.purge_after can't be negative")
	}

	if v.GetDuration("accounts.purge_after") > 0 && v.GetDuration("accounts.purge_every") <= 0 {
		return errors.New("accounts.purge_every must be bigger than 0")
	}

	if !v.GetBool("turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Only logged in accounts can comment")
	} else {
		if v.GetString("turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	if _, err := Rubrics(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

// Rubrics returns the rubric tree to seed the database with. In config.toml
// it's an array of tables:
//
//	[[rubrics]]
//	name = "Transport"
//	subs = ["Cars", "Bikes"]
func Rubrics() ([]db.RubricSeed, error) {
	var seeds []db.RubricSeed

	if err := v.UnmarshalKey("rubrics", &seeds); err != nil {
		return nil, fmt.Errorf("invalid rubrics table, %w", err)
	}

	for _, s := range seeds {
		if s.Name == "" {
			return nil, errors.New("every rubric needs a name")
		}

		for _, name := range append([]string{s.Name}, s.Subs...) {
			if err := validators.RubricNameValidator(name); err != nil {
				return nil, fmt.Errorf("invalid rubric %q, %w", name, err)
			}
		}
	}

	return seeds, nil
}
