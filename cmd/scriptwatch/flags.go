package main

import (
	"flag"
)

// AppFlags holds the parsed command line options.
type AppFlags struct {
	TargetsFile      string
	TargetURL        string
	GlobalConfigFile string
	Live             bool
	IntervalSeconds  int
	TestDiscord      bool
}

// ParseFlags parses command line flags. Short aliases mirror the long forms;
// the long form wins when both are given.
func ParseFlags() AppFlags {
	targetsFile := flag.String("targets", "", "Path to a text file with one target URL per line.")
	targetsFileAlias := flag.String("t", "", "Alias for -targets")

	targetURL := flag.String("url", "", "A single target URL to scan (may be combined with -targets).")
	targetURLAlias := flag.String("u", "", "Alias for -url")

	globalConfigFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	live := flag.Bool("live", false, "Keep scanning at the configured interval instead of running once.")
	intervalSeconds := flag.Int("interval", 0, "Seconds between live-mode scan cycles (overrides config file if set).")

	testDiscord := flag.Bool("test-discord", false, "Send a test message to the configured Discord webhook and exit.")

	flag.Parse()

	flags := AppFlags{
		Live:            *live,
		IntervalSeconds: *intervalSeconds,
		TestDiscord:     *testDiscord,
	}

	if *targetsFile != "" {
		flags.TargetsFile = *targetsFile
	} else {
		flags.TargetsFile = *targetsFileAlias
	}

	if *targetURL != "" {
		flags.TargetURL = *targetURL
	} else {
		flags.TargetURL = *targetURLAlias
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	return flags
}
