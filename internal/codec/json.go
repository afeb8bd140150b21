package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"commandcenter/internal/domain"
)

// JSONCodec handles JSON export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the output
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Export writes the snapshot as indented JSON
func (c *JSONCodec) Export(snapshot *domain.GraphSnapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
