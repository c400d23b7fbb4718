package classifier

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Options carries backend-specific load settings.
type Options struct {
	// Features is the schema width the model must accept.
	Features int
	// RuntimeLibPath locates a native inference runtime, if the backend needs one.
	RuntimeLibPath string
}

// Loader opens a persisted model of one kind.
type Loader func(path string, opts Options) (Classifier, error)

var registry = map[string]Loader{}

// Register adds a loader under the given kind name.
func Register(kind string, l Loader) {
	registry[kind] = l
}

// Open loads the model at path with the loader registered for kind.
func Open(kind, path string, opts Options) (Classifier, error) {
	l, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown classifier kind: %s (registered: %s)", kind, strings.Join(Kinds(), ", "))
	}
	c, err := l(path, opts)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", kind, err)
	}
	return c, nil
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KindFor infers a model kind from the artifact's file extension.
func KindFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return "onnx"
	default:
		return "forest"
	}
}
