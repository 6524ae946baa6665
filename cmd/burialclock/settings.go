package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/config"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/model"
)

// runtimeEnv bundles what every subcommand needs.
type runtimeEnv struct {
	cfg      config.Config
	log      logging.Logger
	settings model.Settings
}

// loadRuntime reads config from the environment, applies flag overrides and
// resolves the scenario settings: defaults, then the selected preset, then
// any duration flags. Invalid values keep the previous layer's value.
func loadRuntime(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("preset-file"); v != "" {
		cfg.PresetFile = v
	}
	if v, _ := cmd.Flags().GetString("preset"); v != "" {
		cfg.Preset = v
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	log := logging.New(logCfg)

	settings, err := resolveSettings(cmd, cfg, log)
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, log: log, settings: settings}, nil
}

func resolveSettings(cmd *cobra.Command, cfg config.Config, log logging.Logger) (model.Settings, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	settings := core.DefaultSettings

	if cfg.PresetFile != "" {
		pf, err := config.LoadPresets(cfg.PresetFile)
		if err != nil {
			return model.Settings{}, err
		}
		candidate, err := pf.Candidate(cfg.Preset)
		switch {
		case err == nil:
			settings = applyLogged(ctx, log, "preset "+cfg.Preset, settings, candidate)
		case errors.Is(err, config.ErrPresetNotFound) && !cmd.Flags().Changed("preset"):
			log.Debug(ctx, "preset file has no entry for the default preset", logging.String("preset", cfg.Preset))
		default:
			return model.Settings{}, fmt.Errorf("preset file %s: %w", cfg.PresetFile, err)
		}
	}

	flags := core.SettingsCandidate{}
	changed := false
	for name, dst := range map[string]*string{
		"exposure":    &flags.ExposureMyr,
		"burial":      &flags.BurialMyr,
		"re-exposure": &flags.ReExposureMyr,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
			changed = true
		}
	}
	if changed {
		settings = applyLogged(ctx, log, "flags", settings, fillFrom(flags, settings))
	}
	return settings, nil
}

func applyLogged(ctx context.Context, log logging.Logger, source string, prev model.Settings, c core.SettingsCandidate) model.Settings {
	for _, field := range core.RejectedFields(c) {
		log.Warn(ctx, "ignoring invalid duration", logging.String("source", source), logging.String("field", field))
	}
	return core.ApplySettings(prev, c)
}

// fillFrom replaces empty candidate fields with the formatted values of s.
func fillFrom(c core.SettingsCandidate, s model.Settings) core.SettingsCandidate {
	base := core.CandidateFrom(s)
	if c.ExposureMyr == "" {
		c.ExposureMyr = base.ExposureMyr
	}
	if c.BurialMyr == "" {
		c.BurialMyr = base.BurialMyr
	}
	if c.ReExposureMyr == "" {
		c.ReExposureMyr = base.ReExposureMyr
	}
	return c
}
