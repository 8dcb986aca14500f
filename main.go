package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/bsaid97/go-polygon-cleaner/config"
	"github.com/bsaid97/go-polygon-cleaner/logger"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to YAML configuration file"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("clean", "Clean GeoJSON files",
		"Repair invalid polygons and remove exact and near-duplicate polygons from each file.", &CleanCommand{})
	parser.AddCommand("check", "Report invalid geometries",
		"List the invalid geometries of a GeoJSON file without repairing them.", &CheckCommand{})
	parser.AddCommand("serve", "Run the HTTP server",
		"Serve the /clean and /check-geometry endpoints.", &ServeCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// setup configures logging and loads the configuration file.
func setup() (*config.Config, error) {
	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Error().Err(err).Str("path", opts.ConfigFile).Msg("Failed to load configuration")
		return nil, err
	}
	return cfg, nil
}
