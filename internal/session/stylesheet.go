package session

import (
	"bufio"
	"os"
	"strings"

	"github.com/foss-geo/tileindex/api"
	"github.com/foss-geo/tileindex/internal/errs"
	"github.com/foss-geo/tileindex/internal/style"
)

// DefaultStylesheetParser is the demo stand-in for the MapCSS parser,
// which spec.md §1 places out of scope as an external collaborator
// consumed through the style.Provider interface. It reads a flat text
// file of "<kind>: <builder1>,<builder2>" lines (kind one of
// node/way/area/relation, or "*" for the fallback rule) into a
// style.StaticProvider.
func DefaultStylesheetParser(path, tag string) (style.Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.ConfigError("open stylesheet", err)
	}
	defer func() { _ = f.Close() }()

	byKind := make(map[api.ElementKind]style.Declaration)
	var fallback style.Declaration

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kindStr, buildersCSV, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errs.ConfigError("malformed stylesheet line: "+line, nil)
		}
		decl := style.Declaration{Include: true, Builders: style.ParseBuilders(buildersCSV)}

		kindStr = strings.TrimSpace(kindStr)
		if kindStr == "*" {
			fallback = decl
			continue
		}
		kind, err := parseKind(kindStr)
		if err != nil {
			return nil, err
		}
		byKind[kind] = decl
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.ConfigError("read stylesheet", err)
	}

	return style.NewStaticProvider(tag, byKind, fallback), nil
}

func parseKind(s string) (api.ElementKind, error) {
	switch strings.ToLower(s) {
	case "node":
		return api.KindNode, nil
	case "way":
		return api.KindWay, nil
	case "area":
		return api.KindArea, nil
	case "relation":
		return api.KindRelation, nil
	default:
		return 0, errs.ConfigError("unknown element kind in stylesheet: "+s, nil)
	}
}
