// Package config loads and validates the application's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dkrasnov/spotiport/internal/constants"
	"github.com/dkrasnov/spotiport/internal/logger"
	"github.com/dkrasnov/spotiport/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// Spotify holds catalog credentials.
	Spotify SpotifyConfig `mapstructure:"spotify"`
	// Output holds library placement settings.
	Output OutputConfig `mapstructure:"output"`
	// Acquisition holds audio download settings.
	Acquisition AcquisitionConfig `mapstructure:"acquisition"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`

	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
}

// SpotifyConfig holds Spotify API credentials.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `mapstructure:"client_id"`
	// ClientSecret is the Spotify application client secret.
	ClientSecret string `mapstructure:"client_secret"`
}

// OutputConfig holds library placement settings.
type OutputConfig struct {
	// Directory is the library root; tilde-expanded and made absolute during validation.
	Directory string `mapstructure:"directory"`
}

// AcquisitionConfig holds audio download settings.
type AcquisitionConfig struct {
	// Workers is the worker pool size for the parallel phases.
	Workers int `mapstructure:"workers"`
	// CookieFile is an optional Netscape cookies.txt passed to the extractor
	// for premium-tier audio quality. Must exist when set.
	CookieFile string `mapstructure:"cookie_file"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".spotiport.yaml"

	// DefaultWorkers is the default worker pool size for phases 2-5.
	DefaultWorkers = 4
)

// Static error definitions for better error handling.
var (
	// ErrMissingClientID indicates that spotify.client_id is empty.
	ErrMissingClientID = errors.New("missing required config key: spotify.client_id")
	// ErrMissingClientSecret indicates that spotify.client_secret is empty.
	ErrMissingClientSecret = errors.New("missing required config key: spotify.client_secret")
	// ErrMissingOutputDirectory indicates that output.directory is empty.
	ErrMissingOutputDirectory = errors.New("missing required config key: output.directory")
	// ErrInvalidWorkers indicates that acquisition.workers is not a positive integer.
	ErrInvalidWorkers = errors.New("acquisition.workers must be a positive integer")
	// ErrCookieFileNotFound indicates that acquisition.cookie_file points at a missing file.
	ErrCookieFileNotFound = errors.New("acquisition.cookie_file does not exist")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
)

// LoadConfig loads configuration settings from a YAML file.
func LoadConfig(configFilename string) (*Config, error) {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	viper.SetConfigFile(configFilename)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Spotify.ClientID) == "" {
		return ErrMissingClientID
	}

	if strings.TrimSpace(cfg.Spotify.ClientSecret) == "" {
		return ErrMissingClientSecret
	}

	outputDir := strings.TrimSpace(cfg.Output.Directory)
	if outputDir == "" {
		return ErrMissingOutputDirectory
	}

	outputDir = utils.ExpandTilde(outputDir)

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output.directory: %w", err)
	}

	cfg.Output.Directory = absDir

	if cfg.Acquisition.Workers == 0 {
		cfg.Acquisition.Workers = DefaultWorkers
	}

	if cfg.Acquisition.Workers < 1 {
		return ErrInvalidWorkers
	}

	if cfg.Acquisition.CookieFile != "" {
		cfg.Acquisition.CookieFile = utils.ExpandTilde(cfg.Acquisition.CookieFile)

		exists, statErr := utils.IsFileExist(cfg.Acquisition.CookieFile)
		if statErr != nil {
			return fmt.Errorf("failed to check acquisition.cookie_file: %w", statErr)
		}

		if !exists {
			return fmt.Errorf("%w: %s", ErrCookieFileNotFound, cfg.Acquisition.CookieFile)
		}
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	return nil
}

// SaveCookieFilePath records the captured cookie file path in the
// configuration file while preserving the original format and order.
func SaveCookieFilePath(cookieFilePath string) error {
	configFile := getConfigFilePath()

	// Read the original file content.
	originalContent, err := os.ReadFile(configFile)
	if err != nil {
		return handleMissingConfigFile(configFile, cookieFilePath, err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Update the acquisition.cookie_file value in the node tree.
	updateCookieFileInNode(&node, cookieFilePath)

	// Marshal back to YAML (preserves order).
	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	// Write the file back with preserved order.
	if err = os.WriteFile(configFile, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigFilePath returns the config file path from viper or the default.
func getConfigFilePath() string {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return DefaultConfigFilename
	}

	return configFile
}

// handleMissingConfigFile creates a new config file if it doesn't exist.
func handleMissingConfigFile(configFile, cookieFilePath string, err error) error {
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// File doesn't exist, create it with viper.
	viper.Set("acquisition.cookie_file", cookieFilePath)

	if err = viper.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// updateCookieFileInNode updates acquisition.cookie_file in the YAML node tree.
func updateCookieFileInNode(node *yaml.Node, cookieFilePath string) {
	// The root node is a document node, content[0] is the actual map.
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return
	}

	acquisitionNode := findOrAppendMapping(node.Content[0], "acquisition")

	// Iterate through key-value pairs (stored as alternating nodes).
	for i := 0; i < len(acquisitionNode.Content)-1; i += 2 {
		keyNode := acquisitionNode.Content[i]
		valueNode := acquisitionNode.Content[i+1]

		if keyNode.Value == "cookie_file" {
			// Update the value while preserving style.
			valueNode.Value = cookieFilePath

			// Ensure it's quoted if it contains special characters.
			if valueNode.Style == 0 {
				valueNode.Style = yaml.DoubleQuotedStyle
			}

			return
		}
	}

	acquisitionNode.Content = append(acquisitionNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "cookie_file"},
		&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: cookieFilePath})
}

// findOrAppendMapping returns the mapping node stored under key, creating an
// empty one at the end of the document when the key is absent.
func findOrAppendMapping(mapNode *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(mapNode.Content)-1; i += 2 {
		keyNode := mapNode.Content[i]
		valueNode := mapNode.Content[i+1]

		if keyNode.Value == key && valueNode.Kind == yaml.MappingNode {
			return valueNode
		}
	}

	newNode := &yaml.Node{Kind: yaml.MappingNode}
	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		newNode)

	return newNode
}
