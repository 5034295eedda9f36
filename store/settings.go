package store

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/validation"
)

// Setting keys accepted by Settings.Set.
const (
	KeyProvider       = "provider"
	KeySelfHostedURL  = "self_hosted_url"
	KeyLanguage       = "language"
	KeyCleanupEnabled = "cleanup_enabled"
	KeyCleanupModel   = "cleanup_model"
)

var providers = []string{"remote", "self-hosted"}

// Set changes a single setting from its textual form.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	v := validation.New()
	switch key {
	case KeyProvider:
		if v.OneOf(key, value, providers); !v.HasErrors() {
			s.Provider = value
		}
	case KeySelfHostedURL:
		s.SelfHostedURL = value
	case KeyLanguage:
		s.Language = value
	case KeyCleanupEnabled:
		if v.Bool(key, value); !v.HasErrors() {
			s.CleanupEnabled, _ = strconv.ParseBool(value)
		}
	case KeyCleanupModel:
		if v.Required(key, value); !v.HasErrors() {
			s.CleanupModel = value
		}
	default:
		return errors.InvalidInput(key, "unknown setting; valid keys are "+strings.Join(SettingKeys(), ", "))
	}
	return v.Validate()
}

// Values returns the settings keyed by their Set name.
func (s Settings) Values() map[string]string {
	return map[string]string{
		KeyProvider:       s.Provider,
		KeySelfHostedURL:  s.SelfHostedURL,
		KeyLanguage:       s.Language,
		KeyCleanupEnabled: strconv.FormatBool(s.CleanupEnabled),
		KeyCleanupModel:   s.CleanupModel,
	}
}

// SettingKeys lists the keys accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, 5)
	for k := range (Settings{}).Values() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
