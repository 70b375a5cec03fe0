// Package compression frames stored record values with an optional
// compression codec.
package compression

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registered codec names.
const (
	None = "none"
	LZ4  = "lz4"

	// Default is used when no codec is configured.
	Default = LZ4
)

var (
	// ErrUnknownCompressor is returned by Get for unregistered names.
	ErrUnknownCompressor = errors.New("unknown compressor")

	// ErrDuplicateCompressor is returned by Register when the name is taken.
	ErrDuplicateCompressor = errors.New("compressor already registered")
)

// Compressor turns record values into frames and back. Frames are
// self-describing, so any registered codec decodes frames written by
// another one.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(frame []byte) ([]byte, error)
}

// Factory creates a compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
)

// Register adds a codec under name.
func Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("compressor registration needs a name and a factory")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, taken := compressors[name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateCompressor, name)
	}
	compressors[name] = factory
	return nil
}

// Get returns a compressor for name. An empty name selects Default.
func Get(name string) (Compressor, error) {
	if name == "" {
		name = Default
	}
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownCompressor, name, Available())
	}
	return factory(), nil
}

// Available returns the registered codec names in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for name, f := range map[string]Factory{
		None: func() Compressor { return &NoCompressor{} },
		LZ4:  func() Compressor { return &LZ4Compressor{} },
	} {
		if err := Register(name, f); err != nil {
			panic(err)
		}
	}
}
