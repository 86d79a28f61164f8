// Package linker resolves library placeholders in contract bytecode.
//
// Two placeholder forms are understood. Legacy solc emits the library name
// padded with underscores to a fixed 40 character token ("__MathLib_____...").
// solc 0.5 and later emit "__$" + 34 hex characters of the keccak256 of the
// fully qualified name + "$__".
package linker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
)

// PlaceholderWidth is the length of a placeholder, equal to an address
// without its 0x prefix.
const PlaceholderWidth = 40

var unresolvedPattern = regexp.MustCompile(`__[^_]+_+`)

// UnresolvedError lists libraries that must be linked before deployment.
type UnresolvedError struct {
	Contract  string
	Libraries []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s contains unresolved libraries. You must deploy and link the following libraries before you can deploy a new version of %s: %s",
		e.Contract, e.Contract, strings.Join(e.Libraries, ", "))
}

// Unresolved returns the distinct library names still referenced by
// placeholders in binary, sorted. A match never extends past one placeholder
// width, so adjacent placeholders are reported separately.
func Unresolved(binary string) []string {
	var matches []string
	for off := 0; off < len(binary); {
		loc := unresolvedPattern.FindStringIndex(binary[off:])
		if loc == nil {
			break
		}
		start, end := off+loc[0], off+loc[1]
		if end-start > PlaceholderWidth {
			end = start + PlaceholderWidth
		}
		matches = append(matches, binary[start:end])
		off = end
	}
	names := lo.Map(matches, func(m string, _ int) string {
		return strings.ReplaceAll(m, "_", "")
	})
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

// Check returns an *UnresolvedError naming contract when binary still has
// placeholders.
func Check(contract, binary string) error {
	if libs := Unresolved(binary); len(libs) > 0 {
		return &UnresolvedError{Contract: contract, Libraries: libs}
	}
	return nil
}

// Resolve substitutes every placeholder of each linked library with its
// address. Libraries are applied in name order so the output is
// deterministic.
func Resolve(binary string, links map[string]common.Address) string {
	names := lo.Keys(links)
	sort.Strings(names)
	for _, name := range names {
		addr := strings.ToLower(strings.TrimPrefix(links[name].Hex(), "0x"))
		binary = strings.ReplaceAll(binary, Placeholder(name), addr)
		binary = strings.ReplaceAll(binary, HashedPlaceholder(name), addr)
	}
	return binary
}

// Placeholder returns the legacy fixed-width placeholder for name.
func Placeholder(name string) string {
	token := "__" + truncate(name)
	return token + strings.Repeat("_", PlaceholderWidth-len(token))
}

// HashedPlaceholder returns the solc 0.5+ placeholder for a fully qualified
// library name such as "contracts/Math.sol:MathLib".
func HashedPlaceholder(name string) string {
	h := crypto.Keccak256Hash([]byte(name)).Hex()
	return "__$" + h[2:36] + "$__"
}

// solc keeps at most 36 characters of the name between the underscores.
func truncate(name string) string {
	if len(name) > PlaceholderWidth-4 {
		return name[:PlaceholderWidth-4]
	}
	return name
}
