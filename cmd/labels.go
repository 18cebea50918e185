package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	corelabels "github.com/sohosai/hyperdashi-server/core/labels"
)

var (
	labelQuantity   int
	labelRecordType string
)

// labelsCmd is the parent command for label operations.
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Issue and inspect item labels",
}

var labelsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Reserve a batch of labels and print them",
	Long: `Reserves --quantity consecutive labels from the shared counter and prints
one per line, ready to be sent to a label printer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.close()

		alloc := corelabels.NewAllocator(rt.db, rt.logger, nil)
		resp, err := alloc.Generate(cmd.Context(), corelabels.GenerateRequest{
			Quantity:   labelQuantity,
			RecordType: labelRecordType,
		})
		if err != nil {
			return err
		}
		for _, code := range resp.VisibleIDs {
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

var labelsCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the last issued label",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.close()

		current, err := corelabels.NewAllocator(rt.db, rt.logger, nil).Current(cmd.Context())
		if err != nil {
			return err
		}
		if current == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no labels issued")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", corelabels.Encode(current), current)
		return nil
	},
}

func init() {
	labelsGenerateCmd.Flags().IntVarP(&labelQuantity, "quantity", "n", 1, "Number of labels to reserve")
	labelsGenerateCmd.Flags().StringVar(&labelRecordType, "record-type", corelabels.RecordNothing, "Record type: qr, barcode or nothing")
	labelsCmd.AddCommand(labelsGenerateCmd, labelsCurrentCmd)
	RootCmd.AddCommand(labelsCmd)
}
