package render

import (
	"fmt"
	"strings"

	"github.com/forgekit/apiforge/internal/ir"
)

// Fragments derives the generated regions for an existing project from the
// normalized IR. Content is a pure function of the IR, so unchanged input
// yields byte-identical fragments and an empty patch set.
func Fragments(api *ir.API) []Fragment {
	return []Fragment{
		{Path: "README.md", Region: "endpoints", Content: endpointIndex(api)},
		{Path: "README.md", Region: "schemas", Content: schemaIndex(api)},
		{Path: "main.go", Region: "routes", Content: routeStubs(api)},
	}
}

func endpointIndex(api *ir.API) string {
	if len(api.Endpoints) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| Method | Path | Summary |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, ep := range api.Endpoints {
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", ep.Method, ep.Path, ep.Summary)
	}
	return b.String()
}

func schemaIndex(api *ir.API) string {
	if len(api.Schemas) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range api.Schemas {
		fmt.Fprintf(&b, "- **%s** (%s)\n", s.Name, s.Type)
	}
	return b.String()
}

func routeStubs(api *ir.API) string {
	var b strings.Builder
	for _, ep := range api.Endpoints {
		fmt.Fprintf(&b, "\tmux.HandleFunc(%q, notImplemented)\n", ep.Method+" "+ep.Path)
	}
	return b.String()
}
