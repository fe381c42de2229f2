package cmd

import (
	"os"

	"warp/internal/build"
	"warp/internal/config"

	"github.com/spf13/cobra"
)

// ParseArgs builds the command tree, parses os.Args into the given
// configuration, and records which command was requested. Execution of
// the command itself happens in main once parsing succeeds.
func ParseArgs(options *config.Config) error {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Warp-marker time stretching for audio clips",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	probeCmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Print duration, sample rate, channels and bit depth of a WAV file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "probe"
			options.CLI.InputFile = args[0]
		},
	}
	rootCmd.AddCommand(probeCmd)

	detectCmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect transients and estimate tempo",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "detect"
			options.CLI.InputFile = args[0]
		},
	}
	rootCmd.AddCommand(detectCmd)

	quantizeCmd := &cobra.Command{
		Use:   "quantize <file>",
		Short: "Detect transients and emit warp markers snapped to a target tempo grid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "quantize"
			options.CLI.InputFile = args[0]
		},
	}
	quantizeCmd.Flags().Float64VarP(&options.CLI.TargetBPM, "target-bpm", "t", 0,
		"Target tempo in BPM (defaults to the detected tempo)")
	quantizeCmd.Flags().Float64Var(&options.CLI.Strength, "strength", 1.0,
		"Quantize strength in [0, 1]; 0 keeps transients in place, 1 snaps them to the grid")
	rootCmd.AddCommand(quantizeCmd)

	renderCmd := &cobra.Command{
		Use:   "render <input> <output>",
		Short: "Render a full clip through its warp markers",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "render"
			options.CLI.InputFile = args[0]
			options.CLI.OutputFile = args[1]
		},
	}
	rootCmd.AddCommand(renderCmd)

	previewCmd := &cobra.Command{
		Use:   "preview <input> <output>",
		Short: "Render a time window of a clip through its warp markers",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "preview"
			options.CLI.InputFile = args[0]
			options.CLI.OutputFile = args[1]
		},
	}
	previewCmd.Flags().Float64Var(&options.CLI.PreviewStart, "start", 0,
		"Window start in seconds")
	previewCmd.Flags().Float64Var(&options.CLI.PreviewEnd, "end", 0,
		"Window end in seconds")
	rootCmd.AddCommand(previewCmd)

	commitCmd := &cobra.Command{
		Use:   "commit <clip-id>",
		Short: "Enqueue a commit job for a stored clip",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "commit"
			options.CLI.ClipID = args[0]
		},
	}
	rootCmd.AddCommand(commitCmd)

	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the state of a commit job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "status"
			options.CLI.JobID = args[0]
		},
	}
	rootCmd.AddCommand(statusCmd)

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the commit worker until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			options.CLI.Command = "worker"
		},
	}
	rootCmd.AddCommand(workerCmd)

	// Engine configuration, shared by detect/quantize/render/preview.
	rootCmd.PersistentFlags().StringVarP(&options.Engine.Algorithm, "algorithm", "a", options.Engine.Algorithm,
		"Stretch algorithm (high-quality, phase-vocoder, overlap-add)")
	rootCmd.PersistentFlags().StringVarP(&options.Engine.Quality, "quality", "q", options.Engine.Quality,
		"Rendering quality (fast, normal, high)")
	rootCmd.PersistentFlags().Float64VarP(&options.Engine.Sensitivity, "sensitivity", "s", options.Engine.Sensitivity,
		"Transient detection sensitivity in [0, 1]")
	rootCmd.PersistentFlags().Float64Var(&options.Engine.MinGap, "min-gap", options.Engine.MinGap,
		"Minimum gap between detected transients, seconds")
	rootCmd.PersistentFlags().IntVar(&options.Engine.BitDepth, "bit-depth", options.Engine.BitDepth,
		"Output bit depth (16, 24 or 32)")

	// Pitch configuration for render and preview.
	rootCmd.PersistentFlags().Float64VarP(&options.CLI.PitchShift, "pitch", "p", 0,
		"Pitch shift in semitones, applied independently of timing")
	rootCmd.PersistentFlags().BoolVarP(&options.CLI.Formants, "preserve-formants", "f", false,
		"Preserve the spectral envelope when pitch shifting")
	rootCmd.PersistentFlags().StringVarP(&options.CLI.MarkersFile, "markers", "m", "",
		"JSON file holding the warp markers for render and preview")

	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}
