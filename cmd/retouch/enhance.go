package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retouch-ml/retouch/internal/autodiff"
	"github.com/retouch-ml/retouch/internal/backend/cpu"
	"github.com/retouch-ml/retouch/internal/dataset"
	"github.com/retouch-ml/retouch/internal/model"
	"github.com/retouch-ml/retouch/internal/nn"
	"github.com/retouch-ml/retouch/internal/tensor"
)

func newEnhanceCmd() *cobra.Command {
	enhanceCmd := &cobra.Command{
		Use:   "enhance --checkpoint FILE --in IMG --out IMG",
		Short: "Run the generator on one image",
		RunE:  enhanceHandler,
	}

	flags := enhanceCmd.Flags()
	flags.String("checkpoint", "", "Generator checkpoint file")
	flags.String("in", "", "Input image (JPEG or PNG)")
	flags.String("out", "", "Output PNG path")
	flags.Int("size", 64, "Working resolution in pixels")

	_ = enhanceCmd.MarkFlagRequired("checkpoint")
	_ = enhanceCmd.MarkFlagRequired("in")
	_ = enhanceCmd.MarkFlagRequired("out")

	return enhanceCmd
}

func enhanceHandler(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	ckptPath, _ := flags.GetString("checkpoint")
	inPath, _ := flags.GetString("in")
	outPath, _ := flags.GetString("out")
	size, _ := flags.GetInt("size")

	img, err := dataset.LoadImage(inPath, size)
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	source, err := tensor.FromSlice(img, tensor.Shape{1, 3, size, size}, backend)
	if err != nil {
		return err
	}

	// The first pass creates the layers, the checkpoint then fills them in.
	gene := model.NewGenerator(backend)
	gene.Forward(source)
	gene.SetTraining(false)

	ckpt, err := nn.LoadCheckpoint(ckptPath, backend, gene, nil)
	if err != nil {
		return err
	}

	out := gene.Forward(source)
	if err := dataset.SavePNG(outPath, out.Raw().AsFloat32(), size); err != nil {
		return err
	}

	fmt.Printf("enhanced %s -> %s (checkpoint step %d)\n", inPath, outPath, ckpt.Step)
	return nil
}
