// Command bbreport runs the full noise-analysis pipeline over a synthetic
// telemetry log and prints the metrics, filter recommendations, PID gains
// and the resulting command script.
//
// Usage:
//
//	bbreport [flags]
//
// The log is synthesized from a noise floor plus injected tones, which makes
// the tool a quick end-to-end check of the pipeline against known signal
// content.
//
// Examples:
//
//	bbreport -tones 180:20
//	bbreport -rate 2000 -seconds 4 -noise 8 -tones 120:15,240:5
//	bbreport -version 4.0 -noise-level 65 -script
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotorlab/blackbox/analysis"
	"github.com/rotorlab/blackbox/telemetry"
)

func main() {
	rate := flag.Float64("rate", 1000, "sample rate in Hz")
	seconds := flag.Float64("seconds", 2, "log duration in seconds")
	noise := flag.Float64("noise", 5, "noise floor amplitude in deg/s")
	tones := flag.String("tones", "180:20", "injected tones as freqHz:amplitude, comma-separated")
	version := flag.String("version", "4.4", "firmware version string")
	noiseLevel := flag.Float64("noise-level", 0, "override the derived 0-100 noise level (0 = derive)")
	seed := flag.Int64("seed", 1, "noise generator seed")
	scriptOnly := flag.Bool("script", false, "print only the command script")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bbreport [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the noise-analysis pipeline over a synthetic telemetry log.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bbreport -tones 180:20\n")
		fmt.Fprintf(os.Stderr, "  bbreport -rate 2000 -seconds 4 -tones 120:15,240:5\n")
		fmt.Fprintf(os.Stderr, "  bbreport -version 4.0 -noise-level 65 -script\n")
	}
	flag.Parse()

	parsed, err := parseTones(*tones)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	gen, err := telemetry.NewGenerator(*rate, telemetry.WithSeed(*seed))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := gen.GyroLog(int(*seconds**rate), *noise, parsed...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rep, err := analysis.New(analysis.Config{
		FirmwareVersion: *version,
		NoiseLevel:      *noiseLevel,
	}).Analyze(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *scriptOnly {
		fmt.Println(rep.Commands)
		return
	}

	printReport(rep)
}

func parseTones(s string) ([]telemetry.Tone, error) {
	var tones []telemetry.Tone

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		freq, amp, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tone %q is not freqHz:amplitude", part)
		}

		f, err := strconv.ParseFloat(freq, 64)
		if err != nil {
			return nil, fmt.Errorf("tone frequency %q: %v", freq, err)
		}

		a, err := strconv.ParseFloat(amp, 64)
		if err != nil {
			return nil, fmt.Errorf("tone amplitude %q: %v", amp, err)
		}

		tones = append(tones, telemetry.Tone{FreqHz: f, Amplitude: a})
	}

	return tones, nil
}

func printReport(rep analysis.Report) {
	fmt.Printf("Profile: %s (improved notch: %v, dynamic lowpass: %v)\n\n",
		rep.Profile.VersionFloor, rep.Profile.SupportsImprovedNotch, rep.Profile.SupportsDynamicLowpass)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	keys := make([]string, 0, len(rep.Metrics))
	for k := range rep.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, rep.Metrics[k])
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
		return
	}

	fmt.Println()

	for _, f := range rep.Filters {
		state := "off"
		if f.Enabled {
			state = "on"
		}

		fmt.Printf("[%s] %s (%s): %s\n", state, f.Title, f.Kind, f.Description)
	}

	fmt.Println()
	fmt.Printf("PID (%s)\n", rep.Tuning.Note)

	for _, axis := range telemetry.Axes {
		rec := rep.Tuning.Axis(axis)
		fmt.Printf("  %-5s P=%d I=%d D=%d  (%s)\n", axis, rec.Gains.P, rec.Gains.I, rec.Gains.D, rec.Note)
	}

	fmt.Println()
	fmt.Println(rep.Commands)
}
