package datasource

import (
	"net/url"
	"path/filepath"
	"strings"

	coreerrors "github.com/ragmesh/querycore/internal/errors"
)

// ValidateConfig checks a source's connection config against the shape its
// Kind requires: an absolute file path, a database connection_string plus
// a username, or an absolute URL. Auth settings of a URL source are not
// checked.
func ValidateConfig(kind Kind, config map[string]interface{}) error {
	switch kind {
	case KindFile:
		return validateFileConfig(config)
	case KindDatabase:
		return validateDatabaseConfig(config)
	case KindURL:
		return validateURLConfig(config)
	default:
		return coreerrors.New("datasource", "ValidateConfig", "UNKNOWN_SOURCE_KIND",
			"unrecognized data source kind: "+string(kind), coreerrors.ClassValidation)
	}
}

func validateFileConfig(config map[string]interface{}) error {
	path, ok := config["path"].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return coreerrors.New("datasource", "ValidateConfig", "MISSING_FILE_PATH",
			"file source requires a non-empty path", coreerrors.ClassValidation)
	}
	if !filepath.IsAbs(path) {
		return coreerrors.New("datasource", "ValidateConfig", "RELATIVE_FILE_PATH",
			"file source path must be absolute", coreerrors.ClassValidation)
	}
	return nil
}

func validateDatabaseConfig(config map[string]interface{}) error {
	dsn, ok := config["connection_string"].(string)
	if !ok || strings.TrimSpace(dsn) == "" {
		return coreerrors.New("datasource", "ValidateConfig", "MISSING_CONNECTION_STRING",
			"database source requires a connection_string", coreerrors.ClassValidation)
	}
	if _, ok := config["username"].(string); !ok {
		return coreerrors.New("datasource", "ValidateConfig", "MISSING_CREDENTIALS",
			"database source requires a username", coreerrors.ClassValidation)
	}
	return nil
}

func validateURLConfig(config map[string]interface{}) error {
	raw, ok := config["url"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return coreerrors.New("datasource", "ValidateConfig", "MISSING_URL",
			"url source requires a non-empty url", coreerrors.ClassValidation)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return coreerrors.New("datasource", "ValidateConfig", "INVALID_URL",
			"url source requires an absolute URL", coreerrors.ClassValidation)
	}
	return nil
}
