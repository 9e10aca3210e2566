package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/blog-platform/services/blog/internal/app"
	"github.com/example/blog-platform/services/blog/internal/permission"
	"github.com/example/blog-platform/services/blog/internal/store"
)

// adminFlag binds --admin, the user id recorded as reviewer or blocker.
func adminFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "admin", "", "administrator user id to act as")
	_ = cmd.MarkFlagRequired("admin")
}

func adminActor(id string) permission.Actor {
	id = strings.TrimSpace(id)
	return permission.Actor{UserID: id, Name: id, Roles: []string{permission.RoleAdmin}}
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func (c *cli) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "reports", Short: "Inspect and review comment reports"}

	var (
		status    string
		commentID int64
		limit     int
		admin     string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := store.ReportFilter{Limit: limit}
			if status != "" {
				st, err := store.ParseReportStatus(status)
				if err != nil {
					return err
				}
				f.Status = &st
			}
			if commentID > 0 {
				f.CommentID = &commentID
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				reports, err := a.Moderation.ListReports(cmd.Context(), adminActor(admin), f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "only reports in this status (pending, reviewed, rejected, action_taken)")
	list.Flags().Int64Var(&commentID, "comment", 0, "only reports against this comment")
	list.Flags().IntVar(&limit, "limit", 50, "maximum number of reports")
	adminFlag(list, &admin)

	var (
		newStatus string
		notes     string
		reviewer  string
	)
	review := &cobra.Command{
		Use:   "review REPORT_ID",
		Short: "Move a pending report to reviewed, rejected or action_taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			st, err := store.ParseReportStatus(newStatus)
			if err != nil {
				return err
			}
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				r, err := a.Moderation.ReviewReport(cmd.Context(), adminActor(reviewer), id, st, notesPtr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
	review.Flags().StringVar(&newStatus, "status", "", "terminal status to apply")
	review.Flags().StringVar(&notes, "notes", "", "review notes")
	_ = review.MarkFlagRequired("status")
	adminFlag(review, &reviewer)

	cmd.AddCommand(list, review)
	return cmd
}

func (c *cli) commentsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "comments", Short: "Block and unblock comments"}

	var reason, blocker string
	block := &cobra.Command{
		Use:   "block COMMENT_ID",
		Short: "Block a comment and resolve its pending reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Moderation.BlockComment(cmd.Context(), adminActor(blocker), id, reason)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	block.Flags().StringVar(&reason, "reason", "", "why the comment is blocked")
	_ = block.MarkFlagRequired("reason")
	adminFlag(block, &blocker)

	var unblocker string
	unblock := &cobra.Command{
		Use:   "unblock COMMENT_ID",
		Short: "Clear a comment's block; its reports are left as they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				cm, err := a.Moderation.UnblockComment(cmd.Context(), adminActor(unblocker), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), cm)
			})
		},
	}
	adminFlag(unblock, &unblocker)

	cmd.AddCommand(block, unblock)
	return cmd
}
