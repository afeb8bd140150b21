package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"commandcenter/internal/domain"
)

// ErrUnknownFormat is returned by ForFormat for unsupported names
var ErrUnknownFormat = errors.New("unknown export format")

// Exporter writes graph snapshots in a specific format
type Exporter interface {
	Export(snapshot *domain.GraphSnapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// ForFormat returns the exporter for name ("json", "yaml" or "yml"); empty means json
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
