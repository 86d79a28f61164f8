package contract

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// ExtensionFunc is a user-supplied operation available on every instance of
// a factory.
type ExtensionFunc func(ctx context.Context, inst *Instance, args ...any) (any, error)

// Extensions maps names to extension operations.
type Extensions map[string]ExtensionFunc

// Extend adds extensions to the factory. A later definition of a name
// replaces an earlier one, including across calls. Instances see extensions
// added after they were created.
func (f *Factory) Extend(exts ...Extensions) {
	for _, ext := range exts {
		for name, fn := range ext {
			f.extensions[name] = fn
		}
	}
}

// ExtensionNames lists the registered extensions, sorted.
func (f *Factory) ExtensionNames() []string {
	names := lo.Keys(f.extensions)
	sort.Strings(names)
	return names
}

// Extension returns the named extension.
func (i *Instance) Extension(name string) (ExtensionFunc, bool) {
	fn, ok := i.factory.extensions[name]
	return fn, ok
}

// CallExtension runs the named extension against i.
func (i *Instance) CallExtension(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := i.Extension(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", i.factory.name, ErrUnknownExtension, name)
	}
	return fn(ctx, i, args...)
}
