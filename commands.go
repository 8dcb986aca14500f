package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
	"github.com/bsaid97/go-polygon-cleaner/config"
	"github.com/bsaid97/go-polygon-cleaner/handlers"
	"github.com/bsaid97/go-polygon-cleaner/logger"
	"github.com/bsaid97/go-polygon-cleaner/utils"
)

type CleanCommand struct {
	OutDir    string   `short:"o" long:"out-dir" description:"Directory for cleaned files (default: next to each input)"`
	Tolerance *float64 `short:"t" long:"tolerance" description:"Near-duplicate tolerance in coordinate units, overrides the configuration"`
	Shapefile bool     `long:"shapefile" description:"Also write a zip with the GeoJSON, the log and a shapefile"`
	Report    bool     `long:"report" description:"Also write the cleaning log as JSON"`
	Workers   int      `short:"w" long:"workers" description:"Files cleaned in parallel (default: number of CPUs)"`

	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

func (c *CleanCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	pipelineOpts := cfg.Cleaning.Options()
	if c.Tolerance != nil {
		if err := cleaning.ValidateTolerance(*c.Tolerance); err != nil {
			return err
		}
		pipelineOpts.Tolerance = *c.Tolerance
	}
	pipeline := cleaning.New(pipelineOpts)

	processor := utils.NewParallelProcessor(c.Workers)
	if len(c.Args.Files) > 1 {
		processor.Progress = os.Stderr
	}

	errs := utils.ProcessBatch(processor, c.Args.Files, func(_ int, path string) error {
		return c.cleanFile(cfg, pipeline, path)
	}, "Cleaning files")

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (c *CleanCommand) cleanFile(cfg *config.Config, pipeline *cleaning.Pipeline, path string) error {
	fileLog := log.With().Str("file", path).Logger()

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	base := baseName(path)
	cleaned, err := handlers.CleanGeoJSON(payload, pipeline, cfg.Cleaning.CodecOptions(base))
	if err != nil {
		fileLog.Error().Err(err).Msg("Cleaning failed")
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Entries(fileLog, cleaned.Result.Logs)

	dir := c.OutDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	outBase := filepath.Join(dir, base+"_CLEANED")

	if err := os.WriteFile(outBase+".geojson", cleaned.GeoJSON, 0o644); err != nil {
		return fmt.Errorf("%s: saving cleaned file: %w", path, err)
	}

	if c.Report {
		data, err := json.MarshalIndent(cleaned.Result.Logs, "", "  ")
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := os.WriteFile(outBase+"_log.json", data, 0o644); err != nil {
			return fmt.Errorf("%s: saving report: %w", path, err)
		}
	}

	if c.Shapefile {
		zipData, err := handlers.ZipCleaned(cleaned, base+"_CLEANED")
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := os.WriteFile(outBase+".zip", zipData, 0o644); err != nil {
			return fmt.Errorf("%s: saving zip: %w", path, err)
		}
	}

	stats := cleaned.Result.Stats
	fileLog.Info().
		Str("output", outBase+".geojson").
		Int("input", stats.Input).
		Int("output_features", stats.Output).
		Int("repaired", stats.Repaired).
		Int("unrepairable", stats.Unrepairable).
		Int("exact_removed", stats.ExactRemoved).
		Int("near_removed", stats.NearRemoved).
		Msg("Cleaning complete")
	return nil
}

type CheckCommand struct {
	Args struct {
		File string `positional-arg-name:"FILE" required:"yes"`
	} `positional-args:"yes"`
}

func (c *CheckCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(c.Args.File)
	if err != nil {
		return err
	}

	reports, err := handlers.CheckGeoJSON(payload, cfg.Cleaning.CodecOptions(baseName(c.Args.File)))
	if err != nil {
		return err
	}
	log.Info().Int("invalid", len(reports)).Str("file", c.Args.File).Msg("Geometry check complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

type ServeCommand struct {
	Addr string `short:"a" long:"addr" env:"LISTEN_ADDRESS" description:"Address to listen on, overrides the configuration"`
	Port int    `short:"p" long:"port" env:"LISTEN_PORT" description:"Port to listen on, overrides the configuration"`
}

func (c *ServeCommand) Execute(_ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Port > 0 {
		cfg.Server.Port = c.Port
	}

	if err := handlers.ListenAndServe(cfg); err != nil {
		log.Error().Err(err).Msg("Server failed")
		return err
	}
	return nil
}

// baseName returns the file name without directory and extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
