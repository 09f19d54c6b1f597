// Command genconfig regenerates config.default.toml, the commented default
// configuration that the daemon writes on first run (embedded via
// configdata.go). It encodes [config.ExampleConfig] and weaves in the
// per-key documentation from [config.ConfigDocs] so the shipped file and
// the config schema cannot drift apart.
//
// Run through go generate; the directive lives in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fortwatch/fortpresence/internal/config"
)

// header opens the generated file.
var header = []string{
	"# ///////////////////////////////////////////////",
	"# Fortpresence Configuration",
	"# ///////////////////////////////////////////////",
	"",
}

func main() {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(config.ExampleConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}

	result := annotate(raw.String())

	// go generate runs from internal/config/; ../../ is the repo root,
	// where configdata.go embeds the file.
	const outPath = "../../config.default.toml"
	if err := os.WriteFile(outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote config.default.toml\n")
}

// annotate rewrites the encoder's plain TOML into the shipped default file:
// documentation comments above each key, commented-out alternative values
// below it, a banner per section, and entries for documented keys the
// encoder dropped as zero-valued.
func annotate(raw string) string {
	out := append([]string(nil), header...)

	// section is the current [section] path; seen tracks doc keys written.
	var section []string
	seen := map[string]bool{}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Spacing is re-established around sections below.
			continue
		}

		if strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[[") {
			// Entering a new section; documented keys the encoder omitted
			// from the previous one get their commented-out form first.
			flushOmitted(&out, section, seen)

			name := strings.Trim(trimmed, "[] ")
			section = splitSection(name)

			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionTitle(name)), "")
			if doc, ok := config.ConfigDocs[name]; ok && doc.Comment != "" {
				out = appendComment(out, doc.Comment)
			}
			out = append(out, trimmed)
			continue
		}

		if !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#") {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		path := key
		if len(section) > 0 {
			path = strings.Join(section, ".") + "." + key
		}
		seen[path] = true

		doc, ok := config.ConfigDocs[path]
		if !ok {
			out = append(out, trimmed)
			continue
		}
		if doc.Comment != "" {
			out = appendComment(out, doc.Comment)
		}
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}
	flushOmitted(&out, section, seen)

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

// appendComment writes a possibly multi-line doc comment as "# " lines.
func appendComment(out []string, comment string) []string {
	for _, cl := range strings.Split(comment, "\n") {
		out = append(out, "# "+cl)
	}
	return out
}

// flushOmitted writes commented-out entries for documented keys of section
// that never appeared in the encoded output -- fields carrying omitempty at
// their zero value. Every documented option must show up in the shipped
// file so users can find it without reading source.
func flushOmitted(out *[]string, section []string, seen map[string]bool) {
	if len(section) == 0 {
		return
	}
	prefix := strings.Join(section, ".") + "."

	var omitted []string
	for path := range config.ConfigDocs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, ".") || seen[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := config.ConfigDocs[path]
		*out = append(*out, "")
		if doc.Comment != "" {
			*out = appendComment(*out, doc.Comment)
		}
		for _, alt := range doc.Alternatives {
			*out = append(*out, "# "+alt)
		}
		seen[path] = true
	}
}

// splitSection breaks a dotted TOML header ("behavior", "display.assets")
// into its path segments.
func splitSection(section string) []string {
	return strings.Split(section, ".")
}

// sectionTitle derives the banner label from a section header: the last
// dotted segment with its first letter upper-cased.
func sectionTitle(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
