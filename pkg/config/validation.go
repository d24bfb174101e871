package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/linefs/internal/telemetry"
)

var validate = validator.New()

// Validate checks struct tag constraints and cross-field rules.
//
// Errors name the failing field and the violated tag, so a bad log level
// reports "Config.Logging.Level: failed 'oneof' validation".
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	return validateCrossFields(cfg)
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := fmt.Sprintf("%s: failed '%s' validation", e.Namespace(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (param: %s)", e.Param())
		}
		msg += fmt.Sprintf(", got %v", e.Value())
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func validateCrossFields(cfg *Config) error {
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}

	if cfg.Telemetry.Profiling.Enabled {
		if cfg.Telemetry.Profiling.Endpoint == "" {
			return fmt.Errorf("telemetry.profiling.endpoint is required when profiling is enabled")
		}
		valid := strings.Join(telemetry.ProfileTypeNames(), ", ")
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if !isProfileType(pt) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown type %q (valid: %s)", pt, valid)
			}
		}
	}

	if cfg.API.Enabled && cfg.API.Port == cfg.Server.Port {
		return fmt.Errorf("api.port and server.port must differ, both are %d", cfg.Server.Port)
	}

	return nil
}

func isProfileType(name string) bool {
	for _, known := range telemetry.ProfileTypeNames() {
		if strings.EqualFold(known, name) {
			return true
		}
	}
	return false
}
