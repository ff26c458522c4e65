package checkpoint

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// validateDocument checks a raw checkpoint document against the embedded schema.
func validateDocument(raw []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile checkpoint schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrCorrupt, strings.Join(problems, "; "))
}
