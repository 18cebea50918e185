package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	corelabels "github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/reconcile"
	"github.com/sohosai/hyperdashi-server/feature/integrity"
)

var (
	fixFlag    bool
	yesConfirm bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check loan flags, the label counter and schema parity",
	Long: `Reports drift between stored state and the invariants the server maintains.

Examples:
  # Report only
  hyperdashi integrity

  # Repair with interactive confirmation
  hyperdashi integrity --fix

  # Repair without prompting
  hyperdashi integrity --fix --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		defer rt.close()
		l := rt.logger

		svc := integrity.NewService(rt.db, corelabels.NewAllocator(rt.db, l, nil), l)
		plan, err := svc.Plan(ctx)
		if err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		printIntegrityReport(l, plan)

		if plan.Summary.Clean() {
			l.Info("No integrity violations found")
			return nil
		}
		if !fixFlag {
			if plan.Summary.Actions > 0 {
				l.Info("Run with --fix to apply the planned repairs.")
			}
			return nil
		}
		if plan.Summary.Actions == 0 {
			l.Info("No repairable violations.")
			return nil
		}
		if !confirmRepair() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		executed, err := svc.Apply(ctx, plan, reconcile.Options{Confirmed: true})
		if err != nil {
			return fmt.Errorf("failed to apply repairs: %w", err)
		}
		l.Info("Successfully executed repairs", zap.Int("count", executed))
		return nil
	},
}

func init() {
	integrityCmd.Flags().BoolVar(&fixFlag, "fix", false, "Apply repairs for repairable violations")
	integrityCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm repairs (non-interactive)")
	RootCmd.AddCommand(integrityCmd)
}

// printIntegrityReport logs the summary and up to five findings and actions.
func printIntegrityReport(l *zap.Logger, plan *reconcile.Plan) {
	const maxShow = 5
	fields := []zap.Field{zap.Int("findings", plan.Summary.Findings), zap.Int("actions", plan.Summary.Actions)}
	for name, n := range plan.Summary.ByCheck {
		fields = append(fields, zap.Int(name, n))
	}
	l.Info("Integrity report", fields...)

	for i, f := range plan.Findings {
		if i == maxShow {
			l.Info("Additional findings not shown", zap.Int("count", len(plan.Findings)-maxShow))
			break
		}
		l.Warn("Finding", zap.String("check", f.Check), zap.String("key", f.Key), zap.String("problem", f.Problem))
	}
	for i, a := range plan.Actions {
		if i == maxShow {
			l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
			break
		}
		l.Info("Planned action", zap.String("type", string(a.Type)), zap.String("key", a.Key), zap.String("reason", a.Reason))
	}
}

// confirmRepair prompts the user for confirmation or uses --yes flag.
func confirmRepair() bool {
	if yesConfirm {
		fmt.Println("\nAuto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nType 'yes' to apply the repairs: ")
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
