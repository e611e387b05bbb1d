package nacc

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Sessions and modules selectable for a run.
const (
	SessionIVP  = "ivp"
	SessionFVP  = "fvp"
	SessionTFP  = "tfp"
	SessionTFP3 = "tfp3"
	SessionNP   = "np"
	SessionM    = "m"

	ModuleLBD   = "lbd"
	ModuleLBDSV = "lbdsv"
	ModuleFTLD  = "ftld"
	ModuleCSF   = "csf"
	ModuleCV    = "cv"

	baseModule = "uds3"
)

// RunConfig selects the protocol for one run and where its data goes.
type RunConfig struct {
	Session  string   `toml:"session" validate:"omitempty,oneof=ivp fvp tfp tfp3 np m"`
	Module   string   `toml:"module" validate:"omitempty,oneof=lbd lbdsv ftld csf cv"`
	RuleSet  string   `toml:"rule_set"`
	Input    string   `toml:"input"`
	Format   string   `toml:"format" validate:"omitempty,oneof=csv jsonl ndjson"`
	Output   string   `toml:"output"`
	Summary  string   `toml:"summary"`
	LogLevel LogLevel `toml:"log_level" validate:"omitempty,oneof=debug info warn error disabled"`
	LogJSON  bool     `toml:"log_json"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Format:   FormatCSV,
		LogLevel: InfoLevel,
	}
}

// LoadRunConfig overlays the keys defined in the TOML file at path onto
// base. Keys the file leaves out keep base's value.
func LoadRunConfig(path string, base RunConfig) (RunConfig, error) {
	cfg := base

	var raw RunConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return RunConfig{}, fmt.Errorf("load run config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return RunConfig{}, fmt.Errorf("load run config: unknown key %q", undecoded[0].String())
	}

	overlay := []struct {
		key string
		dst *string
		src string
	}{
		{"session", &cfg.Session, raw.Session},
		{"module", &cfg.Module, raw.Module},
		{"rule_set", &cfg.RuleSet, raw.RuleSet},
		{"input", &cfg.Input, raw.Input},
		{"format", &cfg.Format, raw.Format},
		{"output", &cfg.Output, raw.Output},
		{"summary", &cfg.Summary, raw.Summary},
	}
	for _, o := range overlay {
		if meta.IsDefined(o.key) {
			*o.dst = strings.TrimSpace(o.src)
		}
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(string(raw.LogLevel))))
	}
	if meta.IsDefined("log_json") {
		cfg.LogJSON = raw.LogJSON
	}
	return cfg, nil
}

// Validate checks field values and rejects contradictory selections.
func (c RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConflictingOptions, err)
	}
	_, err := c.Protocol()
	return err
}

// Protocol resolves the session and module to a catalog protocol name.
// Without a session, ivp is assumed unless the module stands alone.
func (c RunConfig) Protocol() (string, error) {
	session, module := c.Session, c.Module

	switch module {
	case ModuleCSF, ModuleCV:
		if session != "" {
			return "", fmt.Errorf("%w: -%s cannot be combined with -%s", ErrConflictingOptions, module, session)
		}
		return module, nil
	case ModuleLBD, ModuleLBDSV, ModuleFTLD:
		if session == "" {
			session = SessionIVP
		}
		if session != SessionIVP && session != SessionFVP {
			return "", fmt.Errorf("%w: -%s needs -ivp or -fvp, got -%s", ErrConflictingOptions, module, session)
		}
		return module + "-" + session, nil
	case "":
		if session == "" {
			session = SessionIVP
		}
		return baseModule + "-" + session, nil
	default:
		return "", fmt.Errorf("%w: unknown module %q", ErrConflictingOptions, module)
	}
}
