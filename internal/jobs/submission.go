package jobs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"nzbharness/internal/control"
)

// Defaults applied by NewSubmission.
const (
	DefaultCategory = "test"
	DefaultPriority = 0
)

// unpackParam is the post-processing parameter that toggles extraction.
const unpackParam = "*unpack:"

// Submission is one job to append.
type Submission struct {
	Name      string
	Content   []byte
	Category  string
	Priority  int
	AddTop    bool
	AddPaused bool
	DupeKey   string
	DupeScore int
	DupeMode  control.DupeMode
	Params    []control.Param
}

// NewSubmission returns a submission with the harness defaults: category
// "test", priority 0 and dupe mode FORCE.
func NewSubmission(name string, content []byte) Submission {
	return Submission{
		Name:     name,
		Content:  content,
		Category: DefaultCategory,
		Priority: DefaultPriority,
		DupeMode: control.DupeForce,
	}
}

// WithUnpack appends the unpack toggle parameter.
func (s Submission) WithUnpack(enabled bool) Submission {
	value := "no"
	if enabled {
		value = "yes"
	}
	return s.WithParam(unpackParam, value)
}

// WithParam appends a post-processing parameter. Existing entries with the
// same name are kept.
func (s Submission) WithParam(name, value string) Submission {
	params := make([]control.Param, len(s.Params), len(s.Params)+1)
	copy(params, s.Params)
	s.Params = append(params, control.Param{Name: name, Value: value})
	return s
}

// WithDupe sets the duplicate-detection fields.
func (s Submission) WithDupe(key string, score int, mode control.DupeMode) Submission {
	s.DupeKey = key
	s.DupeScore = score
	s.DupeMode = mode
	return s
}

// LoadPayload reads job content generated by the simulation service.
func LoadPayload(dataDir, name string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(dataDir, name))
	if err != nil {
		return nil, fmt.Errorf("load payload %s: %w", name, err)
	}
	return content, nil
}

// Replace substitutes every occurrence of old in content. A payload that does
// not contain old is an error so a mistyped corruption cannot silently pass.
func Replace(content []byte, old, new string) ([]byte, error) {
	if !bytes.Contains(content, []byte(old)) {
		return nil, fmt.Errorf("replace: %q not found in payload", old)
	}
	return bytes.ReplaceAll(content, []byte(old), []byte(new)), nil
}
