package constants

import (
	_ "embed"
	"errors"
	"sort"
	"sync"

	json "github.com/bytedance/sonic"
	"github.com/samber/lo"
)

//go:embed app_aliases.json
var aliasesJSON []byte

var (
	packageAliases map[string][]string
	aliasPackages  map[string]string
	errLoad        error
	once           = new(sync.Once)
)

func load() error {
	once.Do(func() {
		packageAliases = make(map[string][]string)
		if err := json.Unmarshal(aliasesJSON, &packageAliases); err != nil {
			errLoad = errors.Join(err, errors.New("failed to unmarshal embedded app_aliases.json"))
			return
		}

		aliasPackages = make(map[string]string)
		for pkg, aliases := range packageAliases {
			for _, alias := range aliases {
				aliasPackages[alias] = pkg
			}
		}
	})
	return errLoad
}

// GetPackageByAlias returns the package name for a given alias
func GetPackageByAlias(alias string) (string, bool) {
	if err := load(); err != nil {
		return "", false
	}
	pkg, ok := aliasPackages[alias]
	return pkg, ok
}

// ResolvePackage maps an alias to its package, or returns name unchanged when
// it is not a known alias (assumed to already be a package name).
func ResolvePackage(name string) string {
	if pkg, ok := GetPackageByAlias(name); ok {
		return pkg
	}
	return name
}

// Aliases lists every known alias in sorted order.
func Aliases() []string {
	if err := load(); err != nil {
		return nil
	}
	aliases := lo.Keys(aliasPackages)
	sort.Strings(aliases)
	return aliases
}
