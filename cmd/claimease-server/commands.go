package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/claimease/claimease/internal/domain/claims"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/pkg/civil"
)

// withApp runs fn against services backed by a fresh pool. Back-office
// commands never touch blob storage or the rate limiter.
func withApp(fn func(ctx context.Context, a *app, pool *pgxpool.Pool) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := newApp(cfg, logger, pool, nil, nil)
	if err != nil {
		return err
	}
	return fn(ctx, a, pool)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withApp(func(ctx context.Context, a *app, pool *pgxpool.Pool) error {
				if dir == "" {
					dir = a.cfg.MigrationsDir
				}
				count, err := db.NewMigrator(pool, dir).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withApp(func(ctx context.Context, a *app, pool *pgxpool.Pool) error {
				if dir == "" {
					dir = a.cfg.MigrationsDir
				}
				statuses, err := db.NewMigrator(pool, dir).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// parseTransition builds a Transition from command-line values. An empty
// amount means none was given.
func parseTransition(to, amount, reason string) (claims.Transition, error) {
	status, err := claims.ParseStatus(to)
	if err != nil {
		return claims.Transition{}, err
	}
	t := claims.Transition{To: status, Reason: reason}
	if amount != "" {
		v, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			return claims.Transition{}, fmt.Errorf("invalid --approved-amount %q", amount)
		}
		t.ApprovedAmount = &v
	}
	return t, nil
}

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Back-office claim adjudication",
	}

	transitionCmd := &cobra.Command{
		Use:   "transition",
		Short: "Move a claim to its next status",
		Example: `  claimease-server claims transition --claim-id 7 --to "Under Review"
  claimease-server claims transition --claim-id 7 --to Approved --approved-amount 45000
  claimease-server claims transition --claim-id 7 --to Rejected --reason "Pre-existing condition"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			claimID, _ := cmd.Flags().GetInt64("claim-id")
			to, _ := cmd.Flags().GetString("to")
			amount, _ := cmd.Flags().GetString("approved-amount")
			reason, _ := cmd.Flags().GetString("reason")
			if claimID <= 0 {
				return fmt.Errorf("--claim-id is required")
			}
			t, err := parseTransition(to, amount, reason)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, _ *pgxpool.Pool) error {
				c, err := a.claims.Transition(ctx, claimID, t)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
	transitionCmd.Flags().Int64("claim-id", 0, "Claim to transition")
	transitionCmd.Flags().String("to", "", "Target status: Under Review, Approved, Rejected, Settled")
	transitionCmd.Flags().String("approved-amount", "", "Approved amount (required for Approved)")
	transitionCmd.Flags().String("reason", "", "Rejection reason (required for Rejected)")
	cmd.AddCommand(transitionCmd)

	return cmd
}

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Back-office document review",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Mark a claim document as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, _ := cmd.Flags().GetInt64("document-id")
			if documentID <= 0 {
				return fmt.Errorf("--document-id is required")
			}
			return withApp(func(ctx context.Context, a *app, _ *pgxpool.Pool) error {
				d, err := a.claims.VerifyDocument(ctx, documentID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
	verifyCmd.Flags().Int64("document-id", 0, "Document to verify")
	cmd.AddCommand(verifyCmd)

	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	assignCmd := &cobra.Command{
		Use:   "assign-policy",
		Short: "Link a user to an insurance policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user-id")
			policyID, _ := cmd.Flags().GetInt64("policy-id")
			startRaw, _ := cmd.Flags().GetString("start")
			endRaw, _ := cmd.Flags().GetString("end")

			start, end, err := parsePolicyTerm(startRaw, endRaw)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app, _ *pgxpool.Pool) error {
				if err := a.identity.AssignPolicy(ctx, userID, policyID, start, end); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned policy %d to user %d.\n", policyID, userID)
				return nil
			})
		},
	}
	assignCmd.Flags().Int64("user-id", 0, "User to update")
	assignCmd.Flags().Int64("policy-id", 0, "Active policy to assign")
	assignCmd.Flags().String("start", "", "Policy start date YYYY-MM-DD (default today)")
	assignCmd.Flags().String("end", "", "Policy end date YYYY-MM-DD (default start + 1 year)")
	cmd.AddCommand(assignCmd)

	return cmd
}

func parsePolicyTerm(startRaw, endRaw string) (start, end civil.Date, err error) {
	if startRaw != "" {
		if start, err = civil.Parse(startRaw); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if endRaw != "" {
		if end, err = civil.Parse(endRaw); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return start, end, nil
}
