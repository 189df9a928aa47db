package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"chk.szuro.net/internal/params"
	"chk.szuro.net/internal/rules"
)

const (
	DefaultChecksDir  = "/usr/share/chkd/checks"
	DefaultLocalDir   = "/etc/chkd/checks.d"
	DefaultWorkingDir = "/var/lib/chkd"
	DefaultPort       = 2021
	DefaultBuffer     = 100
)

type ChkConf struct {
	ChecksDir      string              `yaml:"checks_dir"`
	LocalChecksDir string              `yaml:"local_checks_dir"`
	ProvidersDir   string              `yaml:"providers_dir"`
	WorkingDir     string              `yaml:"working_dir"`
	Debug          bool                `yaml:"debug"`
	LogLevel       string              `yaml:"log_level"`
	BufferSize     int                 `yaml:"buffer_size"`
	Http           HTTPConf            `yaml:"http"`
	Hosts          map[string]HostConf `yaml:"hosts"`

	// CheckVariables override the variables declared by check plugins,
	// e.g. the default levels of a check.
	CheckVariables map[string]any `yaml:"check_variables"`

	CheckgroupParameters map[string]rules.Ruleset `yaml:"checkgroup_parameters"`
	CheckParameters      rules.Ruleset            `yaml:"check_parameters"`
	ServiceRuleGroups    []string                 `yaml:"service_rule_groups"`

	slogLevel slog.Level
}

type HTTPConf struct {
	ListenPort    int    `yaml:"listen_port"`
	ListenAddress string `yaml:"listen_address"`
}

type HostConf struct {
	Tags []string `yaml:"tags"`
}

func ParseChkConfig(path string) (conf ChkConf, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read config file: %w", err)
	}

	if err = yaml.Unmarshal(file, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	conf.setDirs()
	conf.setBuffer()
	conf.setPort()
	conf.setLogLevel()
	conf.setServiceRuleGroups()

	return conf, nil
}

func (cc *ChkConf) setLogLevel() {
	switch cc.LogLevel {
	case "DEBUG":
		cc.slogLevel = slog.LevelDebug
	case "INFO":
		cc.slogLevel = slog.LevelInfo
	case "WARN":
		cc.slogLevel = slog.LevelWarn
	case "ERROR":
		cc.slogLevel = slog.LevelError
	default:
		cc.slogLevel = slog.LevelInfo
	}
}

func (cc *ChkConf) GetLogLevel() slog.Level {
	return cc.slogLevel
}

func (cc *ChkConf) setBuffer() {
	if cc.BufferSize <= 0 {
		cc.BufferSize = DefaultBuffer
	}
}

func (cc *ChkConf) setPort() {
	if cc.Http.ListenPort == 0 {
		cc.Http.ListenPort = DefaultPort
	}
}

func (cc *ChkConf) setDirs() {
	if cc.ChecksDir == "" {
		cc.ChecksDir = DefaultChecksDir
	}
	if cc.LocalChecksDir == "" {
		cc.LocalChecksDir = DefaultLocalDir
	}
	if cc.WorkingDir == "" {
		cc.WorkingDir = DefaultWorkingDir
	}
}

// An explicitly empty service_rule_groups list disables the exception.
func (cc *ChkConf) setServiceRuleGroups() {
	if cc.ServiceRuleGroups == nil {
		cc.ServiceRuleGroups = append([]string(nil), params.DefaultServiceRuleGroups...)
	}
}

// AutochecksDir is where discovered services are stored.
func (cc *ChkConf) AutochecksDir() string {
	return filepath.Join(cc.WorkingDir, "autochecks")
}

// IndexDir is where read offsets of the discovery files are stored.
func (cc *ChkConf) IndexDir() string {
	return filepath.Join(cc.WorkingDir, "index")
}

// DiscoveryDir is tailed for discovery records.
func (cc *ChkConf) DiscoveryDir() string {
	return filepath.Join(cc.WorkingDir, "discovery")
}

// HostTags returns the tags of every configured host.
func (cc *ChkConf) HostTags() map[string][]string {
	tags := make(map[string][]string, len(cc.Hosts))
	for name, h := range cc.Hosts {
		tags[name] = h.Tags
	}
	return tags
}

func (cc *ChkConf) Rulesets() params.Rulesets {
	return params.Rulesets{
		CheckgroupParameters: cc.CheckgroupParameters,
		CheckParameters:      cc.CheckParameters,
		ServiceRuleGroups:    cc.ServiceRuleGroups,
	}
}
