package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/crd-syncer/pkg/errors"
)

// Defaults for the remote resource coordinates and the sync policy. The
// guard flags default to their protective settings so that a fresh
// deployment can't clobber local files.
const (
	DefaultGroup        = "ha.example.com"
	DefaultAPIVersion   = "v1"
	DefaultNamespace    = "default"
	DefaultKind         = "Service"
	DefaultPayloadField = "spec"
	DefaultSyncInterval = 5 * time.Second
)

// InitialConfigVersion is the first version of the syncer config file.
// Config files that do not specify a version will default to this version.
const InitialConfigVersion = "v1alpha1"

// SupportedConfigVersion is the version of the syncer config file that the
// current binary supports.
const SupportedConfigVersion = "v1alpha1"

// Config is the complete runtime configuration of the syncer.
type Config struct {
	// Group and APIVersion identify the API group that the synced custom
	// resources live in.
	Group      string
	APIVersion string

	// Namespace is the namespace containing the resource instances.
	Namespace string

	// InCluster selects the pod's ServiceAccount for authentication. When
	// false, the user's kubeconfig is used instead.
	InCluster bool

	// PayloadField is the field of the custom resource that holds the synced
	// document. Deployments in the wild use both `spec` and `data`.
	PayloadField string

	// SyncInterval is how long the reconcile loop sleeps between passes.
	SyncInterval time.Duration

	// ProtectLocalOnAbsent stops the syncer from touching either side of a
	// mapping while its remote resource doesn't exist.
	ProtectLocalOnAbsent bool

	// SkipEmptyRemoteToLocal stops an empty remote payload from overwriting
	// a non-empty local file.
	SkipEmptyRemoteToLocal bool

	// Mappings is the table of synced files, in declaration order.
	Mappings []Mapping
}

// fileConfig is the YAML representation of Config.
type fileConfig struct {
	Version                string    `json:"version,omitempty"`
	Group                  string    `json:"group,omitempty"`
	APIVersion             string    `json:"apiVersion,omitempty"`
	Namespace              string    `json:"namespace,omitempty"`
	InCluster              *bool     `json:"inCluster,omitempty"`
	PayloadField           string    `json:"payloadField,omitempty"`
	SyncIntervalSeconds    *float64  `json:"syncInterval,omitempty"`
	DefaultKind            string    `json:"defaultKind,omitempty"`
	ProtectLocalOnAbsent   *bool     `json:"protectLocalOnAbsent,omitempty"`
	SkipEmptyRemoteToLocal *bool     `json:"skipEmptyRemoteToLocal,omitempty"`
	Mappings               []Mapping `json:"mappings,omitempty"`
}

func (c fileConfig) getVersion() string {
	return c.Version
}

// Load assembles the runtime configuration. Values start at their defaults,
// the optional YAML config file at path is applied next, and environment
// variables win over both. Load fails fast when the resulting mapping table
// is empty since a syncer with nothing to sync is always a deployment
// mistake.
func Load(path string) (Config, error) {
	config := Config{
		Group:                  DefaultGroup,
		APIVersion:             DefaultAPIVersion,
		Namespace:              DefaultNamespace,
		InCluster:              true,
		PayloadField:           DefaultPayloadField,
		SyncInterval:           DefaultSyncInterval,
		ProtectLocalOnAbsent:   true,
		SkipEmptyRemoteToLocal: true,
	}
	defaultKind := DefaultKind

	if path != "" {
		parsed := fileConfig{Version: InitialConfigVersion}
		if err := parseConfigFile(path, &parsed); err != nil {
			return Config{}, errors.WithContext(err, "parse config file")
		}

		applyString(&config.Group, parsed.Group)
		applyString(&config.APIVersion, parsed.APIVersion)
		applyString(&config.Namespace, parsed.Namespace)
		applyString(&config.PayloadField, parsed.PayloadField)
		applyString(&defaultKind, parsed.DefaultKind)
		applyBool(&config.InCluster, parsed.InCluster)
		applyBool(&config.ProtectLocalOnAbsent, parsed.ProtectLocalOnAbsent)
		applyBool(&config.SkipEmptyRemoteToLocal, parsed.SkipEmptyRemoteToLocal)
		if parsed.SyncIntervalSeconds != nil {
			config.SyncInterval = secondsToDuration(*parsed.SyncIntervalSeconds)
		}

		seen := map[string]bool{}
		for i, mapping := range parsed.Mappings {
			if mapping.FilePath == "" || mapping.Plural == "" || mapping.Name == "" {
				return Config{}, errors.NewFriendlyError(
					"Mapping %d in %q is missing a required field. "+
						"Each mapping needs `file`, `plural`, and `name`.", i, path)
			}

			filePath, err := homedir.Expand(mapping.FilePath)
			if err != nil {
				return Config{}, errors.WithContext(err, "expand homedir")
			}
			if seen[filePath] {
				return Config{}, errors.NewFriendlyError(
					"The file %q is mapped more than once in %q. "+
						"Each local file can only sync against a single resource.",
					filePath, path)
			}
			seen[filePath] = true
			parsed.Mappings[i].FilePath = filePath
		}
		config.Mappings = parsed.Mappings
	}

	applyString(&config.Group, os.Getenv("CRD_GROUP"))
	applyString(&config.APIVersion, os.Getenv("CRD_VERSION"))
	applyString(&config.Namespace, os.Getenv("CRD_NAMESPACE"))
	if os.Getenv("CRD_NAMESPACE") == "" {
		applyString(&config.Namespace, os.Getenv("NAMESPACE"))
	}
	applyString(&config.PayloadField, os.Getenv("CR_PAYLOAD_FIELD"))
	applyString(&defaultKind, os.Getenv("DEFAULT_KIND"))
	applyBoolEnv(&config.InCluster, "IN_CLUSTER")
	applyBoolEnv(&config.ProtectLocalOnAbsent, "PROTECT_LOCAL_ON_CR_ABSENT")
	applyBoolEnv(&config.SkipEmptyRemoteToLocal, "SKIP_EMPTY_CR_TO_FILE")

	if raw := os.Getenv("SYNC_INTERVAL"); raw != "" {
		// A non-numeric interval silently falls back to the default rather
		// than stopping the syncer from starting.
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
			config.SyncInterval = secondsToDuration(seconds)
		}
	}

	if fileMap := os.Getenv("FILE_MAP"); fileMap != "" {
		mappings, err := ParseFileMap(fileMap, defaultKind)
		if err != nil {
			return Config{}, errors.WithContext(err, "parse FILE_MAP")
		}
		config.Mappings = mappings
	}

	// Kinds are defaulted after all overrides have been applied so that
	// DEFAULT_KIND from the environment wins over `defaultKind` in the
	// config file for file-sourced mappings too.
	for i := range config.Mappings {
		if config.Mappings[i].Kind == "" {
			config.Mappings[i].Kind = defaultKind
		}
	}

	if len(config.Mappings) == 0 {
		if path == "" {
			return Config{}, errors.MissingEnvError{Name: "FILE_MAP"}
		}
		return Config{}, errors.NewFriendlyError(
			"No file mappings are configured. Set FILE_MAP or add a "+
				"`mappings` section to %q.", path)
	}
	return config, nil
}

// parseConfigErrTemplate is a template for when the CLI fails to parse yaml
// configuration files. The yaml library constructs errors in a way that
// loses context, so we can only pass the error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of crd-syncer.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

func parseConfigFile(path string, config *fileConfig) error {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if isPathNotFoundError(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if config.getVersion() != SupportedConfigVersion {
		return incompatibleVersionError{path, SupportedConfigVersion, config.getVersion()}
	}

	// Do a strict unmarshal to check for any extra fields. We do a non-strict
	// unmarshal first so that we can catch version errors before erroring on
	// extra fields.
	if err := yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}

func isPathNotFoundError(err error) bool {
	if fileErr, ok := err.(*os.PathError); ok &&
		fileErr.Op == "open" && fileErr.Err.Error() == "no such file or directory" {
		return true
	}
	return false
}

func applyString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func applyBool(dst *bool, val *bool) {
	if val != nil {
		*dst = *val
	}
}

func applyBoolEnv(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = strings.ToLower(val) == "true"
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
