// Package config loads the settings shared by the CLI, the worker and the
// REST server from flags and the environment.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/clintrovert/release-tickets/pkg/types"
)

// Source selects where tags and commits are read from
type Source string

const (
	SourceGitHub Source = "github"
	SourceLocal  Source = "local"
)

// DefaultAPIURL is the public GitHub API endpoint
const DefaultAPIURL = "https://api.github.com"

var (
	ErrMissingCredential = errors.New("access credential is not set")
	ErrMissingRepository = errors.New("repository is not set")
	ErrInvalidSource     = errors.New("invalid source")
)

// Config is built once by the invoking harness and passed explicitly
type Config struct {
	ProjectKey   string
	Repository   types.RepositoryInfo
	Token        string
	APIURL       string
	Source       Source
	WorkspaceDir string
	AllMatches   bool
	OutputFile   string

	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
	RESTPort          string
}

// NewViper returns a viper instance with defaults and environment bindings
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("source", string(SourceGitHub))
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("workspace_dir", "/tmp/release-tickets-workspace")
	v.SetDefault("all_matches", false)
	v.SetDefault("temporal.address", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "release-tickets")
	v.SetDefault("rest.port", "8080")

	// GitHub Actions exposes action inputs as INPUT_<NAME>
	v.BindEnv("project_key", "INPUT_PROJECT_KEY", "PROJECT_KEY")
	v.BindEnv("token", "GITHUB_TOKEN")
	v.BindEnv("api_url", "GITHUB_API_URL")
	v.BindEnv("repository", "GITHUB_REPOSITORY")
	v.BindEnv("source", "SOURCE")
	v.BindEnv("workspace_dir", "WORKSPACE_DIR")
	v.BindEnv("all_matches", "ALL_MATCHES")
	v.BindEnv("output_file", "GITHUB_OUTPUT")
	v.BindEnv("temporal.address", "TEMPORAL_ADDRESS")
	v.BindEnv("temporal.namespace", "TEMPORAL_NAMESPACE")
	v.BindEnv("temporal.task_queue", "TASK_QUEUE")
	v.BindEnv("rest.port", "REST_PORT")

	return v
}

// BindFlags lets command-line flags override the environment
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"project_key":   "project-key",
		"token":         "token",
		"repository":    "repo",
		"source":        "source",
		"workspace_dir": "workspace",
		"all_matches":   "all-matches",
	}

	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", name)
		}
	}

	return nil
}

// Load reads a Config out of v. It does not validate it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ProjectKey:        strings.TrimSpace(v.GetString("project_key")),
		Token:             v.GetString("token"),
		APIURL:            strings.TrimSuffix(v.GetString("api_url"), "/"),
		Source:            Source(strings.ToLower(v.GetString("source"))),
		WorkspaceDir:      v.GetString("workspace_dir"),
		AllMatches:        v.GetBool("all_matches"),
		OutputFile:        v.GetString("output_file"),
		TemporalAddress:   v.GetString("temporal.address"),
		TemporalNamespace: v.GetString("temporal.namespace"),
		TaskQueue:         v.GetString("temporal.task_queue"),
		RESTPort:          v.GetString("rest.port"),
	}

	if slug := v.GetString("repository"); slug != "" {
		repo, err := types.ParseRepository(slug)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to parse repository")
		}
		cfg.Repository = repo
	}

	return cfg, nil
}

// Validate checks the preconditions that must hold before any network call
func (c Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}

	if c.Repository.Owner == "" || c.Repository.Name == "" {
		return errors.WithHint(ErrMissingRepository, "set GITHUB_REPOSITORY or pass --repo owner/name")
	}

	return nil
}

// ValidateSource checks the source and its credential, for processes that
// serve many repositories
func (c Config) ValidateSource() error {
	switch c.Source {
	case SourceGitHub:
		if c.Token == "" {
			return errors.WithHint(ErrMissingCredential, "set GITHUB_TOKEN or pass --token")
		}
	case SourceLocal:
	default:
		return errors.WithHintf(
			errors.Wrapf(ErrInvalidSource, "%q", string(c.Source)),
			"use %q or %q", SourceGitHub, SourceLocal,
		)
	}

	return nil
}
