package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Metrics:          %v\n", cfg.Metrics)
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Data Dir:         %s\n", cfg.DataDirPath())
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintln(out, "Reasoning:")
	fmt.Fprintf(out, "  Model:            %s\n", cfg.DeepConf.Model)
	fmt.Fprintf(out, "  Backend:          %s\n", cfg.DeepConf.Backend)
	fmt.Fprintf(out, "  Mode:             %s\n", cfg.DeepConf.Mode)
	fmt.Fprintf(out, "  Paths:            %d (keep ratio %.2f)\n", cfg.DeepConf.NumPaths, cfg.DeepConf.KeepRatio)
	if cfg.DeepConf.Preset != "" {
		fmt.Fprintf(out, "  Preset:           %s\n", cfg.DeepConf.Preset)
	}
	temperature := cfg.DeepConf.Temperature
	if temperature <= 0 {
		if t := ParamsForPreset(cfg.DeepConf.Preset).Temperature; t != nil {
			temperature = *t
		}
	}
	fmt.Fprintf(out, "  Temperature:      %.2f\n", temperature)
	fmt.Fprintf(out, "  Window Size:      %d tokens\n", cfg.DeepConf.WindowSize)
	fmt.Fprintln(out, "Behavior:")
	fmt.Fprintf(out, "  Sources:          %s\n", strings.Join(cfg.Behavior.Sources, ", "))
	fmt.Fprintf(out, "  Threshold:        %.2f\n", cfg.Behavior.ConfidenceThreshold)
	fmt.Fprintf(out, "  Max Trajectory:   %d steps\n", cfg.Behavior.MaxTrajectoryLength)
	fmt.Fprintln(out, "Benchmark:")
	fmt.Fprintf(out, "  Output Dir:       %s\n", cfg.BenchmarkOutputDir())
	fmt.Fprintf(out, "  Pause:            %ds between cases\n", cfg.Benchmark.PauseSeconds)
	fmt.Fprintln(out, "Hosts:")
	for _, h := range cfg.Hosts {
		fmt.Fprintf(out, "  %-16s %s (%s)\n", h.Name, h.URL, h.Type)
	}
}
