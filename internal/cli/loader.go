package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/arangoq/internal/ir"
	"github.com/roach88/arangoq/internal/qparams"
	"github.com/roach88/arangoq/internal/search"
)

// LoadError represents an error that occurred while loading command input.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E002" // Path not found
	ErrCodeParseFailed   = "E003" // Query input could not be decoded
	ErrCodeProfiles      = "E004" // Search profiles invalid
	ErrCodeCompileFailed = "E005" // Compilation failed
	ErrCodeUnsafe        = "E006" // Validation warnings under --strict
	ErrCodeHistory       = "E007" // History store error
	ErrCodeConfig        = "E008" // Config file invalid
	ErrCodeProvision     = "E009" // Provisioning failed
	ErrCodeInvalidArgs   = "E010" // Conflicting or missing flags
)

// LoadQuery returns the query object from a query string or a query file.
// At most one may be given; neither yields an empty object.
// Files ending in .yaml or .yml are read as YAML, .json as JSON.
func LoadQuery(queryString, file string) (any, error) {
	switch {
	case queryString != "" && file != "":
		return nil, &LoadError{Code: ErrCodeInvalidArgs, Message: "--query and --file are mutually exclusive"}

	case queryString != "":
		obj, err := qparams.Parse(queryString)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("query string: %v", err)}
		}
		return obj, nil

	case file != "":
		data, err := os.ReadFile(file)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", file)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading query file: %v", err)}
		}

		var q any
		switch strings.ToLower(filepath.Ext(file)) {
		case ".json":
			q, err = ir.DecodeJSON(data)
		case ".yaml", ".yml":
			q, err = ir.DecodeYAML(data)
		default:
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: unsupported query file type (want .json, .yaml or .yml)", file)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", file, err)}
		}
		return q, nil

	default:
		return ir.Object{}, nil
	}
}

// LoadProfiles returns the registry in path, or the built-in registry when
// path is empty. CUE validation errors keep their source position.
func LoadProfiles(path string) (*search.Registry, error) {
	if path == "" {
		return search.Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profiles file not found: %s", path)}
	}

	r, err := search.LoadFile(path)
	if err != nil {
		loadErr := &LoadError{Code: ErrCodeProfiles, Message: err.Error()}
		for _, pos := range cueerrors.Positions(err) {
			if pos.IsValid() {
				loadErr.Pos = pos
				break
			}
		}
		return nil, loadErr
	}
	return r, nil
}

// errorCode extracts the error code and message from an error.
func errorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// outputError reports err through the formatter and returns an exit error
// carrying code.
func outputError(formatter *OutputFormatter, exitCode int, err error) error {
	code, message := errorCode(err)
	_ = formatter.Error(code, message, nil)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", code, message), nil)
}
