package artifact

import "sort"

// builtinSources maps names to embedded artifact JSON. New embedded
// contracts register themselves from init().
var builtinSources = map[string][]byte{}

func init() {
	RegisterBuiltin("RightsContractFactory", rightsContractFactoryJSON)
}

// RegisterBuiltin adds an embedded artifact under name.
func RegisterBuiltin(name string, data []byte) {
	builtinSources[name] = data
}

// Builtin returns a fresh copy of the embedded artifact named name.
func Builtin(name string) (*Artifact, bool) {
	data, ok := builtinSources[name]
	if !ok {
		return nil, false
	}
	a, err := Parse(data, name)
	if err != nil {
		return nil, false
	}
	return a, true
}

// Builtins returns the names of all embedded artifacts, sorted.
func Builtins() []string {
	out := make([]string, 0, len(builtinSources))
	for name := range builtinSources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
