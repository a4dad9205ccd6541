package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ponpaku/creators-file-manager/internal/config"
	"github.com/ponpaku/creators-file-manager/internal/executor"
	"github.com/ponpaku/creators-file-manager/internal/log"
	"github.com/ponpaku/creators-file-manager/internal/metadata"
	"github.com/ponpaku/creators-file-manager/internal/ops"
	"github.com/ponpaku/creators-file-manager/internal/settings"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

var appVersion = "0.1.0"

var (
	cfgFile        string
	includeSub     bool
	conflictPolicy string
	outputDir      string
	previewOnly    bool
	asJSON         bool
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "cfm",
		Short:   "Batch file operations for photo and video collections",
		Version: appVersion,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (YAML)")
	root.PersistentFlags().BoolVarP(&includeSub, "recursive", "r", false, "include subfolders")
	root.PersistentFlags().StringVar(&conflictPolicy, "on-conflict", "sequence", "conflict policy: overwrite, sequence, skip")
	root.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory")
	root.PersistentFlags().BoolVar(&previewOnly, "preview", false, "plan only, change nothing")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print responses as JSON")

	root.AddCommand(renameCommand())
	root.AddCommand(deleteCommand())
	root.AddCommand(compressCommand())
	root.AddCommand(flattenCommand())
	root.AddCommand(exifOffsetCommand())
	root.AddCommand(stripCommand())
	root.AddCommand(settingsCommand())
	return root
}

func loadConfig() *config.Config {
	if cfgFile != "" {
		if cfg, err := config.LoadFromFile(cfgFile); err == nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// newEngine builds the engine with console progress and SIGINT wired to the
// cancellation flag.
func newEngine(cfg *config.Config, logger *log.Logger) *ops.Engine {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		executor.RequestCancel()
	}()

	opts := []ops.Option{
		ops.WithWorkers(cfg.Jobs),
		ops.WithLogger(logger),
		ops.WithProgress(func(event types.OperationProgressEvent) {
			if !event.Done {
				logger.Progress(event.Processed, event.Total, event.CurrentPath)
				return
			}
			logger.Summary(event.Operation, event.Processed, event.Succeeded, event.Failed, event.Skipped, event.Canceled)
		}),
	}
	if cfg.UseProbe {
		opts = append(opts, ops.WithProbe(metadata.NewFFProbe()))
	}
	return ops.New(opts...)
}

func printResponse(resp any) {
	if asJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Printf("%+v\n", resp)
}

func policyFlag() types.ConflictPolicy {
	return types.ConflictPolicy(strings.ToLower(conflictPolicy))
}

func renameCommand() *cobra.Command {
	var template string
	var source string
	cmd := &cobra.Command{
		Use:   "rename [paths...]",
		Short: "Rename files from a template",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.RenameRequest{
				InputPaths:        args,
				IncludeSubfolders: includeSub,
				Template:          template,
				Source:            types.RenameSource(source),
				OutputDir:         outputDir,
				ConflictPolicy:    policyFlag(),
				UseProbe:          cfg.UseProbe,
			}
			if previewOnly {
				resp, err := engine.PreviewRename(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteRename(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "rename template, e.g. {capture_date:YYYYMMDD}_{seq:3}")
	cmd.Flags().StringVar(&source, "datetime-source", string(types.SourceCaptureThenModified), "captureThenModified, modifiedOnly, or currentTime")
	cmd.MarkFlagRequired("template")
	return cmd
}

func deleteCommand() *cobra.Command {
	var extensions []string
	var mode string
	var retreatDir string
	cmd := &cobra.Command{
		Use:   "delete [paths...]",
		Short: "Delete files matching an extension set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.DeleteRequest{
				InputPaths:        args,
				IncludeSubfolders: includeSub,
				Extensions:        extensions,
				Mode:              types.DeleteMode(mode),
				RetreatDir:        retreatDir,
				ConflictPolicy:    policyFlag(),
			}
			if previewOnly {
				resp, err := engine.PreviewDelete(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteDelete(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&extensions, "ext", "e", nil, "extensions to delete (repeatable)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(types.DeleteTrash), "direct, trash, or retreat")
	cmd.Flags().StringVar(&retreatDir, "retreat-dir", "", "destination for retreat mode")
	cmd.MarkFlagRequired("ext")
	return cmd
}

func compressCommand() *cobra.Command {
	var resize float64
	var quality int
	var targetKB int64
	var tolerance float64
	var preserveExif bool
	cmd := &cobra.Command{
		Use:   "compress [paths...]",
		Short: "Recompress JPEG files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.CompressRequest{
				InputPaths:        args,
				IncludeSubfolders: includeSub,
				ResizePercent:     resize,
				Quality:           quality,
				TargetSizeKB:      targetKB,
				TolerancePercent:  tolerance,
				PreserveExif:      preserveExif,
				OutputDir:         outputDir,
				ConflictPolicy:    policyFlag(),
			}
			if previewOnly {
				resp, err := engine.PreviewCompress(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteCompress(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().Float64Var(&resize, "resize", 100, "resize percent (1-100)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 85, "JPEG quality (1-100)")
	cmd.Flags().Int64Var(&targetKB, "target-size", 0, "target total size in KB (solves resize/quality)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 10, "target size tolerance percent")
	cmd.Flags().BoolVar(&preserveExif, "keep-exif", false, "carry the EXIF segment over")
	return cmd
}

func flattenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten [dir]",
		Short: "Copy a directory tree into a single flat directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.FlattenRequest{
				InputDir:       args[0],
				OutputDir:      outputDir,
				ConflictPolicy: policyFlag(),
			}
			if previewOnly {
				resp, err := engine.PreviewFlatten(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteFlatten(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	return cmd
}

func exifOffsetCommand() *cobra.Command {
	var offsetSeconds int64
	cmd := &cobra.Command{
		Use:   "exif-offset [paths...]",
		Short: "Shift EXIF datetime tags by a fixed offset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.ExifOffsetRequest{
				InputPaths:        args,
				IncludeSubfolders: includeSub,
				OffsetSeconds:     offsetSeconds,
			}
			if previewOnly {
				resp, err := engine.PreviewExifOffset(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteExifOffset(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().Int64Var(&offsetSeconds, "seconds", 0, "offset in seconds (may be negative)")
	cmd.MarkFlagRequired("seconds")
	return cmd
}

func stripCommand() *cobra.Command {
	var preset string
	var categories []string
	cmd := &cobra.Command{
		Use:   "strip [paths...]",
		Short: "Remove metadata categories from JPEG files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()
			engine := newEngine(cfg, logger)

			req := &types.MetadataStripRequest{
				InputPaths:        args,
				IncludeSubfolders: includeSub,
				Preset:            types.StripPreset(preset),
				Categories:        categoriesFromFlags(categories),
			}
			if previewOnly {
				resp, err := engine.PreviewMetadataStrip(req)
				if err != nil {
					return err
				}
				printResponse(resp)
				return nil
			}
			resp, err := engine.ExecuteMetadataStrip(req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", string(types.PresetCustom), "snsPublish, delivery, fullClean, or custom")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "categories for the custom preset (gps, cameraLens, software, authorCopyright, comments, thumbnail, iptc, xmp, shootingSettings, captureDateTime)")
	return cmd
}

func categoriesFromFlags(names []string) types.StripCategories {
	var cats types.StripCategories
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "gps":
			cats.GPS = true
		case "cameraLens":
			cats.CameraLens = true
		case "software":
			cats.Software = true
		case "authorCopyright":
			cats.AuthorCopyright = true
		case "comments":
			cats.Comments = true
		case "thumbnail":
			cats.Thumbnail = true
		case "iptc":
			cats.IPTC = true
		case "xmp":
			cats.XMP = true
		case "shootingSettings":
			cats.ShootingSettings = true
		case "captureDateTime":
			cats.CaptureDateTime = true
		}
	}
	return cats
}

func settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the persisted settings file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			loaded, err := store.Load()
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(loaded, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export [path]",
		Short: "Export settings to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			return store.Export(args[0])
		},
	})

	var mode string
	var policy string
	importCmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import settings from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.NewStore()
			if err != nil {
				return err
			}
			_, err = store.Import(args[0], mode, types.MergePolicy(policy))
			return err
		},
	}
	importCmd.Flags().StringVar(&mode, "mode", "merge", "overwrite or merge")
	importCmd.Flags().StringVar(&policy, "on-conflict", string(types.MergeKeepExisting), "existing, import, or cancel")
	cmd.AddCommand(importCmd)

	return cmd
}
