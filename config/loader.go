package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/httputils/logger"
)

// FileSystem abstracts the file operations used by the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using the OS.
type RealFileSystem struct{}

// Exists reports whether path exists.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file path (optional)
	EnvFile    string // explicit .env file path (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles contains the config and env file paths picked by the loader.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns the files LoadConfig would read for serviceName.
// Explicit paths win; otherwise the first existing candidate is used.
func Resolve(serviceName string, lc LoaderConfig) ResolvedFiles {
	fs := lc.FileSystem
	if fs == nil {
		fs = RealFileSystem{}
	}
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(serviceName))
	}
	return files
}

func configCandidates(serviceName string) []string {
	var out []string
	for _, dir := range []string{".", "./config", "./cmd/" + serviceName} {
		for _, name := range []string{serviceName + ".yml", serviceName + ".yaml", "config.yml", "config.yaml"} {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out
}

func envCandidates(serviceName string) []string {
	return []string{
		".env." + serviceName,
		".env",
		filepath.Join("config", ".env."+serviceName),
		filepath.Join("config", ".env"),
	}
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for a service into cfg.
//
// Sources are layered lowest first: the YAML config file, the .env file,
// then process environment variables. An environment variable overrides a
// key from the config file when its lowercased name matches the key with
// each "." written as "_": HTTPCLIENT_TIMEOUT overrides httpclient.timeout.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	files := Resolve(serviceName, lc)
	log := logger.WithComponent("config")

	v := viper.New()
	switch {
	case files.ConfigFile == "":
	case !lc.FileSystem.Exists(files.ConfigFile):
		log.Warn("config file not found", logger.Fields("file", files.ConfigFile))
	default:
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
		log.Debug("config file loaded", logger.Fields("file", files.ConfigFile))
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.Fields("file", files.EnvFile, "error", err.Error()))
		}
	}

	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv overrides keys already known to v with matching environment
// variables. Only known keys are touched so unrelated variables never leak
// into the configuration.
func bindEnv(v *viper.Viper, environ []string) {
	known := make(map[string]bool)
	for _, key := range v.AllKeys() {
		known[key] = true
	}

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, key := range envKeyVariants(name) {
			if known[key] {
				v.Set(key, value)
			}
		}
	}
}

// envKeyVariants returns the config keys an environment variable may refer
// to. Underscores are ambiguous: each one may be a nesting separator or part
// of a key name.
//
//	HTTPCLIENT_USER_AGENT -> httpclient_user_agent, httpclient.user_agent,
//	                         httpclient_user.agent, httpclient.user.agent
func envKeyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	if len(parts) > 8 {
		return []string{strings.Join(parts, "_"), strings.Join(parts, ".")}
	}

	var out []string
	var walk func(i int, acc string)
	walk = func(i int, acc string) {
		if i == len(parts) {
			out = append(out, acc)
			return
		}
		walk(i+1, acc+"_"+parts[i])
		walk(i+1, acc+"."+parts[i])
	}
	walk(1, parts[0])
	return out
}
