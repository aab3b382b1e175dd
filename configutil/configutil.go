// Package configutil overlays a YAML config file onto a flag.FlagSet,
// letting command-line flags and a config file both set the same
// options with flags taking precedence.
package configutil

import (
	"flag"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// ApplyYAML unmarshals rawYAML as a flat string map and, for every flag
// registered in fs that was not already set on the command line, sets it
// from the config key REPLACE(UPPERCASE(flagname), '-', '_'). Flags the
// user passed explicitly are never overridden.
func ApplyYAML(fs *flag.FlagSet, rawYAML []byte) (err error) {
	conf := make(map[string]string)
	if err = yaml.Unmarshal(rawYAML, conf); err != nil {
		return fmt.Errorf("configutil: parsing config: %w", err)
	}

	alreadySet := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		alreadySet[f.Name] = true
	})

	fs.VisitAll(func(f *flag.Flag) {
		if alreadySet[f.Name] {
			return
		}
		key := strings.ToUpper(f.Name)
		key = strings.ReplaceAll(key, "-", "_")
		val, ok := conf[key]
		if !ok {
			return
		}
		if serr := fs.Set(f.Name, val); serr != nil {
			err = fmt.Errorf("configutil: invalid value %q for %s: %w", val, key, serr)
		}
	})
	return err
}
