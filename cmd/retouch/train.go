package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/dataset"
	"github.com/retouch-ml/retouch/internal/train"
)

func newTrainCmd() *cobra.Command {
	trainCmd := &cobra.Command{
		Use:   "train --source DIR --target DIR",
		Short: "Train the enhancement network on unpaired image sets",
		Long: `Train the enhancement network on unpaired image sets.

The source directory holds the faces to be improved, the target directory
the reference faces whose look the network learns. The sets are unpaired
and may differ in length.`,
		RunE: trainHandler,
	}

	defaults := train.DefaultConfig()

	flags := trainCmd.Flags()
	flags.String("source", "", "Directory of input face images")
	flags.String("target", "", "Directory of reference face images")
	flags.Int("size", 64, "Training resolution in pixels")
	flags.Int("batch", 16, "Batch size")
	flags.Int("steps", defaults.Steps, "Total optimization steps")
	flags.Float64("lr", defaults.Model.LearningRateStart, "Starting Adam learning rate")
	flags.Float64("pixel-min", defaults.Model.PixelLossMin, "Pixel-loss blend at annealing 0")
	flags.Float64("pixel-max", defaults.Model.PixelLossMax, "Pixel-loss blend at annealing 1")
	flags.Float64("half-life", defaults.HalfLife, "Annealing half-life in steps")
	flags.Int("k", defaults.Model.DownscaleFactor, "Pixel-loss downscale factor (2, 4, 8 or 16)")
	flags.String("checkpoint-dir", defaults.CheckpointDir, "Checkpoint output directory")
	flags.Int("checkpoint-every", defaults.CheckpointEvery, "Checkpoint cadence in steps (0 disables)")
	flags.String("backend", "cpu", "Compute backend")
	flags.BoolP("verbose", "v", false, "Print per-layer network summaries")

	_ = trainCmd.MarkFlagRequired("source")
	_ = trainCmd.MarkFlagRequired("target")

	return trainCmd
}

func trainHandler(cmd *cobra.Command, _ []string) error {
	log.SetFlags(0)
	flags := cmd.Flags()

	sourceDir, _ := flags.GetString("source")
	targetDir, _ := flags.GetString("target")
	size, _ := flags.GetInt("size")
	batch, _ := flags.GetInt("batch")

	cfg := train.DefaultConfig()
	cfg.Steps, _ = flags.GetInt("steps")
	cfg.Model.LearningRateStart, _ = flags.GetFloat64("lr")
	cfg.Model.PixelLossMin, _ = flags.GetFloat64("pixel-min")
	cfg.Model.PixelLossMax, _ = flags.GetFloat64("pixel-max")
	cfg.HalfLife, _ = flags.GetFloat64("half-life")
	cfg.Model.DownscaleFactor, _ = flags.GetInt("k")
	cfg.CheckpointDir, _ = flags.GetString("checkpoint-dir")
	cfg.CheckpointEvery, _ = flags.GetInt("checkpoint-every")
	cfg.Verbose, _ = flags.GetBool("verbose")

	backendName, _ := flags.GetString("backend")
	if backendName != "cpu" {
		return fmt.Errorf("backend %q not supported on this platform", backendName)
	}
	backend := autodiff.New(cpu.New())

	trainer, err := train.New(cfg, backend)
	if err != nil {
		return err
	}

	sourceSet, err := dataset.OpenDirectory(sourceDir, size)
	if err != nil {
		return err
	}
	targetSet, err := dataset.OpenDirectory(targetDir, size)
	if err != nil {
		return err
	}

	batcher, err := dataset.NewBatcher(sourceSet, targetSet, batch, 2, backend)
	if err != nil {
		return err
	}
	defer func() { _ = batcher.Close() }()

	log.Printf("run %s: %d source / %d target images at %dx%d, batch %d, %d steps",
		trainer.RunID(), sourceSet.Len(), targetSet.Len(), size, size, batch, cfg.Steps)

	if err := trainer.Run(batcher.Next); err != nil {
		return err
	}

	if cfg.CheckpointDir != "" && trainer.Step() > 0 {
		genePath, discPath, err := trainer.SaveCheckpoint()
		if err != nil {
			return err
		}
		log.Printf("saved %s and %s", genePath, discPath)
	}
	return nil
}
