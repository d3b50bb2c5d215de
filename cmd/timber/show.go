package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/pkg/timber"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var train, options string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print experiment introspection",
	}
	cmd.PersistentFlags().StringVar(&train, "train", "", "labeled training instances")
	cmd.PersistentFlags().StringVar(&options, "options", "", "engine options")

	sub := func(use, short string, needsTraining bool, show func(*timber.Classifier, io.Writer) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := root.cfg
				if cmd.Flags().Changed("train") {
					cfg.Engine.TrainPath = train
				}
				if cmd.Flags().Changed("options") {
					cfg.Engine.Options = options
				}
				if needsTraining && cfg.Engine.TrainPath == "" {
					return errNoTrainingData
				}

				clf, err := newClassifier(cfg, root.logger, nil)
				if err != nil {
					return err
				}
				defer clf.Close()
				if err := show(clf, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("show %s: %w", use, err)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		sub("options", "Print the effective engine options", false, func(c *timber.Classifier, w io.Writer) error {
			if err := c.ShowOptions(w); err != nil {
				return err
			}
			_, err := io.WriteString(w, "\n")
			return err
		}),
		sub("settings", "Print the experiment settings", false, (*timber.Classifier).ShowSettings),
		sub("weights", "Print the feature weights", true, (*timber.Classifier).ShowWeights),
	)
	return cmd
}
