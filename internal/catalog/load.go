package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/buildcheck/internal/ir"
)

//go:embed default.cue
var defaultCUE []byte

// Error codes for catalog loading.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"
	ErrCodeNoRules     = "E007"

	ErrCodeMissingField = "E101"
	ErrCodeInvalidValue = "E102"
)

// LoadError is a catalog loading failure, with a CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Mode controls how errors are handled while compiling rules.
type Mode int

const (
	// FailFast stops at the first malformed rule.
	FailFast Mode = iota
	// CollectAll compiles every rule and reports all failures.
	CollectAll
)

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(defaultCUE, cue.Filename("default.cue"))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building embedded catalog: %v", err)}
	}
	cat, errs := fromValue(value, FailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return cat, nil
}

// MustDefault is like Default but panics on error.
func MustDefault() *Catalog {
	cat, err := Default()
	if err != nil {
		panic(err)
	}
	return cat
}

// Load reads every .cue file in dir as one CUE package and compiles its
// rules. It stops at the first malformed rule.
func Load(dir string) (*Catalog, error) {
	cat, errs := LoadDir(dir, FailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return cat, nil
}

// LoadDir loads a catalog directory under the given mode. In CollectAll
// mode the returned catalog holds the rules that did compile.
func LoadDir(dir string, mode Mode) (*Catalog, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	return fromValue(value, mode)
}

func fromValue(value cue.Value, mode Mode) (*Catalog, []error) {
	rulesVal := value.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeNoRules, Message: "no rules found in catalog"}}
	}
	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating rules: %v", err)}}
	}

	var (
		rules []ir.ZoningRule
		errs  []error
	)
	for iter.Next() {
		id := iter.Label()
		rule, compileErr := CompileRule(id, iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, id))
			if mode == FailFast {
				return nil, errs
			}
			continue
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "no rules found in catalog"})
	}
	return New(rules), errs
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, id string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    fieldErrorCode(compileErr.Field),
			Message: fmt.Sprintf("rule %s: %s: %s", id, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("rule %s: %v", id, err),
	}
}

func fieldErrorCode(field string) string {
	switch field {
	case "jurisdiction", "rule_type", "unit", "section", "text", "applies_to":
		return ErrCodeMissingField
	case "value", "districts", "url", "text_value":
		return ErrCodeInvalidValue
	default:
		return ErrCodeGeneric
	}
}
