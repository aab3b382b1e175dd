// Command gunzip decompresses one or more gzip files named on the
// command line, writing each one's decompressed contents next to it
// (the input name with its .gz suffix removed).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/coreos/gunzip"
	"github.com/coreos/gunzip/capnslog"
	"github.com/coreos/gunzip/configutil"
)

var log = capnslog.NewPackageLogger("github.com/coreos/gunzip", "cmd")

func main() {
	capnslog.SetFormatter(capnslog.NewStringFormatter(os.Stderr))

	fs := flag.NewFlagSet("gunzip", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file overlaying these flags")
	verifyCRC := fs.Bool("verify-crc", false, "verify the gzip trailer's CRC32 and size after decompressing")
	logLevel := fs.String("log-level", "INFO", "log level for github.com/coreos/gunzip: CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG, or TRACE")
	fs.Parse(os.Args[1:])

	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("reading config %s: %v", *configPath, err)
		}
		if err := configutil.ApplyYAML(fs, raw); err != nil {
			log.Fatalf("applying config %s: %v", *configPath, err)
		}
	}

	// Resolved after the config overlay so a YAML LOG_LEVEL entry (applied
	// via fs.Set above) takes effect instead of being locked in by the
	// flag's command-line default.
	if lvl, err := capnslog.ParseLevel(strings.ToUpper(*logLevel)); err != nil {
		log.Fatalf("invalid -log-level %q: %v", *logLevel, err)
	} else {
		capnslog.MustRepoLogger("github.com/coreos/gunzip").SetGlobalLogLevel(lvl)
	}

	args := fs.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gunzip [-config path] [-verify-crc] [-log-level LEVEL] file.gz [file2.gz ...]")
		os.Exit(1)
	}

	var opts []gunzip.Option
	if *verifyCRC {
		opts = append(opts, gunzip.VerifyTrailer())
	}

	status := 0
	for _, path := range args {
		if err := gunzipOne(path, opts...); err != nil {
			log.Errorf("%s: %v", path, err)
			status = 1
		}
	}
	os.Exit(status)
}

func gunzipOne(path string, opts ...gunzip.Option) error {
	out := strings.TrimSuffix(path, ".gz")
	if out == path {
		out = path + ".out"
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Infof("decompressing %s -> %s", path, out)
	if err := gunzip.Gunzip(path, f, opts...); err != nil {
		return err
	}
	return nil
}
