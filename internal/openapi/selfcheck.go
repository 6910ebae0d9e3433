package openapi

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// SelfCheck round-loads an encoded document and validates it, so a mapping
// bug fails the run instead of shipping a broken document.
func SelfCheck(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("self-check: load generated document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("self-check: generated document is invalid: %w", err)
	}
	return nil
}
