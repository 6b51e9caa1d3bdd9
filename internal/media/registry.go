package media

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Resolve a source URL. A source URL is a colon-separated string consisting
// of a scheme and a path:
//    url = scheme + ":" + path
// The format of the path is defined by the registered ResolveFunc. A URL with
// no scheme resolves as "file:".
func Resolve(url string) (Source, error) {
	// Log known schemes, for debug purposes.
	var schemes []string
	for s := range registry {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	log.Debug("Registered source schemes: %v", schemes)

	scheme, path := splitURL(url)

	if resolve, found := registry[scheme]; found {
		src, err := resolve(path)
		if err != nil {
			return nil, errors.Wrapf(ErrNotFound, "resolving %s: %v", url, err)
		}
		return src, nil
	}
	return nil, errors.Wrapf(ErrNotSupported, "source scheme '%s' not registered", scheme)
}

func splitURL(url string) (scheme, path string) {
	parts := strings.SplitN(url, ":", 2)
	if len(parts) == 2 && registry[parts[0]] != nil {
		return parts[0], parts[1]
	}
	// No scheme (or an unregistered prefix that is really a path, e.g. a
	// Windows drive letter): treat the whole URL as a file path.
	return "file", url
}

// A function used to resolve a specific source scheme.
type ResolveFunc func(path string) (Source, error)

var registry = map[string]ResolveFunc{}

// RegisterScheme registers a source scheme. Sources with this scheme will be
// resolved with the given function.
func RegisterScheme(scheme string, resolve ResolveFunc) {
	registry[scheme] = resolve
}
