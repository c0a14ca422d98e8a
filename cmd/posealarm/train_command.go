package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/pose-alarm/internal/pose"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var label, input string
	var limit int

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Add training examples for a label from JSONL pose frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.train(cmd.Context(), label, input, limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label for every frame in the input (required)")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "Frame source (JSONL file, - for stdin)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many examples (0 for no limit)")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func (c *commandContext) train(ctx context.Context, label, input string, limit int, out io.Writer) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}
	if veto := cfg.Gate().ValidateLabel(label); veto != nil {
		return errors.New(veto.Reason)
	}

	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	return c.withStore(func(st *store.Store) error {
		clf, closer, err := c.openClassifier(ctx, st)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		frames := make(chan pose.Frame, 16)
		decodeErr := make(chan error, 1)
		go func() { decodeErr <- pose.DecodeFrames(ctx, in, frames, logger) }()

		producer := pose.NewProducer(cfg.FeatureMode())
		added, skipped := 0, 0
		limited := false
		for frame := range frames {
			features, err := producer.Features(frame)
			if err != nil {
				skipped++
				continue
			}
			if err := clf.AddExample(ctx, features, label); err != nil {
				return fmt.Errorf("add example: %w", err)
			}
			added++
			if limit > 0 && added >= limit {
				limited = true
				break
			}
		}
		if !limited {
			if err := <-decodeErr; err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "Added %d examples for %s (%d frames without a pose)\n", added, label, skipped)
		return nil
	})
}

func newCountsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show training examples per label",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.counts(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *commandContext) counts(ctx context.Context, out io.Writer) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return c.withStore(func(st *store.Store) error {
		counts, err := c.exampleCounts(ctx, st)
		if err != nil {
			return err
		}

		g := cfg.Gate()
		labels := g.RequiredLabels()
		usedBy := make(map[string]string, len(labels))
		for _, ex := range cfg.Exercises {
			usedBy[ex.ActiveLabel] = ex.Name + " (active)"
			usedBy[ex.RestingLabel] = ex.Name + " (resting)"
		}
		var extra []string
		for l := range counts {
			if _, ok := usedBy[l]; !ok {
				extra = append(extra, l)
				usedBy[l] = "not used"
			}
		}
		sort.Strings(extra)

		b := newTable(textCol("Label"), countCol("Examples"), textCol("Used by"))
		for _, l := range append(labels, extra...) {
			b.add(l, counts[l], usedBy[l])
		}
		fmt.Fprintln(out, b.render())
		fmt.Fprintln(out, g.Evaluate(counts).Reason)
		return nil
	})
}

// exampleCounts reads per-label counts straight from the store in local mode,
// and asks the classifier service otherwise.
func (c *commandContext) exampleCounts(ctx context.Context, st *store.Store) (map[string]int, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Classifier.Mode != "remote" {
		return st.CountExamples(ctx)
	}
	clf, closer, err := c.openClassifier(ctx, st)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return clf.CountByLabel(ctx)
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <label>",
		Short: "Remove every training example for a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				clf, closer, err := ctx.openClassifier(cmd.Context(), st)
				if err != nil {
					return err
				}
				defer closer.Close()

				n, err := clf.ClearLabel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d examples for %s\n", n, args[0])
				return nil
			})
		},
	}
}
