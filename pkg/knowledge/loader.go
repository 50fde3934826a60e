package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/perbu/careeradvisor/data"
)

var validate = validator.New()

// Load reads a JSON array of question/answer records from fsys.
// Fields other than question and answer are ignored.
func Load(fsys fs.FS, name string) (Base, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Source: name, Err: ErrNotFound}
		}
		return nil, &LoadError{Source: name, Err: fmt.Errorf("reading %s: %w", name, err)}
	}
	return Parse(name, content)
}

// LoadFile loads a knowledge source from a path on disk.
func LoadFile(path string) (Base, error) {
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadSource loads the knowledge source at path, or the embedded default
// when path is empty.
func LoadSource(path string) (Base, error) {
	if path == "" {
		return Load(data.FS, data.DefaultFile)
	}
	return LoadFile(path)
}

// Parse decodes and validates the raw content of a knowledge source.
// source is only used in error messages.
func Parse(source string, content []byte) (Base, error) {
	var records []Item
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	if len(records) == 0 {
		return nil, &LoadError{Source: source, Err: ErrEmpty}
	}

	base := make(Base, len(records))
	for i, record := range records {
		record.Question = strings.TrimSpace(record.Question)
		record.Answer = strings.TrimSpace(record.Answer)

		if err := validate.Struct(record); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				return nil, &LoadError{
					Source: source,
					Err:    fmt.Errorf("%w %d: %s is %s", ErrInvalidItem, i, strings.ToLower(fieldErrs[0].Field()), fieldErrs[0].Tag()),
				}
			}
			return nil, &LoadError{Source: source, Err: fmt.Errorf("%w %d: %v", ErrInvalidItem, i, err)}
		}
		base[i] = record
	}

	return base, nil
}
