package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/mailer"
	"github.com/tigrisdata/inviter/models"
	"github.com/tigrisdata/inviter/storage"
)

var (
	inviteEmail      string
	inviteMessage    string
	inviteEntity     string
	inviteReferrer   int64
	inviteTTL        time.Duration
	inviteStatusNote string
	listStatus       string
)

func invitationsCmd() *cobra.Command {
	var invitationsCmd = &cobra.Command{
		Use:   "invitations",
		Short: "Manage invitations from the command line",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new invitation and print it",
		Run: func(cmd *cobra.Command, args []string) {
			execWithConfig(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher) {
				createInvitation(cmd.Context(), cmd.OutOrStdout(), config, store, publisher)
			})
		},
	}
	createCmd.Flags().StringVar(&inviteEmail, "email", "", "email address of the invitee")
	createCmd.Flags().StringVar(&inviteMessage, "message", "", "message included in the invitation")
	createCmd.Flags().StringVar(&inviteEntity, "entity", "", "identifier of the entity the invitee joins")
	createCmd.Flags().Int64Var(&inviteReferrer, "referrer", 0, "identifier of the inviting user")
	createCmd.Flags().DurationVar(&inviteTTL, "ttl", 0, "how long the invitation stays valid, defaults to INVITER_INVITATION_DEFAULT_TTL")
	_ = createCmd.MarkFlagRequired("email")

	statusCmd := &cobra.Command{
		Use:   "status <code>",
		Short: "Print the status of an invitation, or Invalid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execWithConfigAndArgs(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, args []string) {
				l := bindInvitation(cmd.Context(), config, store, publisher, args[0])
				status, err := l.Status(cmd.Context())
				if err != nil {
					logrus.Fatalf("Error reading invitation status: %+v", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), status.String())
			}, args)
		},
	}

	consumeCmd := finishCmd("consume", "Mark a pending invitation as successful", (*invitation.Lifecycle).Consume)
	cancelCmd := finishCmd("cancel", "Cancel a pending invitation", (*invitation.Lifecycle).Cancel)

	remindCmd := &cobra.Command{
		Use:   "remind <code>",
		Short: "Send the invitation again",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execWithConfigAndArgs(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, args []string) {
				l := bindInvitation(cmd.Context(), config, store, publisher, args[0])
				fmt.Fprintln(cmd.OutOrStdout(), l.Reminder(cmd.Context()))
			}, args)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the invitations matching the given filters as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			execWithConfig(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher) {
				invitations, err := store.List(contextOrBackground(cmd.Context()), models.InvitationFilter{
					Email:      inviteEmail,
					EntityID:   inviteEntity,
					ReferrerID: inviteReferrer,
					Status:     models.Status(listStatus),
				})
				if err != nil {
					logrus.Fatalf("Error listing invitations: %+v", err)
				}
				printJSON(cmd.OutOrStdout(), invitations)
			})
		},
	}
	listCmd.Flags().StringVar(&inviteEmail, "email", "", "only invitations sent to this address")
	listCmd.Flags().StringVar(&inviteEntity, "entity", "", "only invitations for this entity")
	listCmd.Flags().Int64Var(&inviteReferrer, "referrer", 0, "only invitations from this referrer")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only invitations in this status")

	invitationsCmd.AddCommand(createCmd, listCmd, statusCmd, consumeCmd, cancelCmd, remindCmd)
	return invitationsCmd
}

func finishCmd(use, short string, finish func(*invitation.Lifecycle, context.Context, *string) (bool, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execWithConfigAndArgs(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, args []string) {
				var note *string
				if cmd.Flags().Changed("status-message") {
					note = &inviteStatusNote
				}
				l := bindInvitation(cmd.Context(), config, store, publisher, args[0])
				ok, err := finish(l, cmd.Context(), note)
				if err != nil {
					logrus.Fatalf("Error updating invitation: %+v", err)
				}
				if !ok {
					logrus.Fatalf("Invitation %s is no longer valid", args[0])
				}
				logrus.Infof("Invitation %s is now %s", args[0], l.Get().Status)
			}, args)
		},
	}
	cmd.Flags().StringVar(&inviteStatusNote, "status-message", "", "note stored with the new status")
	return cmd
}

func bindInvitation(ctx context.Context, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, code string) *invitation.Lifecycle {
	l, err := newLifecycle(config, store, publisher).SetCode(contextOrBackground(ctx), code)
	if err != nil {
		logrus.Fatalf("Error loading invitation: %+v", err)
	}
	return l
}

func createInvitation(ctx context.Context, out io.Writer, config *conf.Configuration, store storage.Store, publisher invitation.Publisher) {
	if err := mailer.ValidateEmail(inviteEmail); err != nil {
		logrus.Fatalf("Invalid email address %q: %v", inviteEmail, err)
	}
	ttl := inviteTTL
	if ttl <= 0 {
		ttl = config.Invitation.DefaultTTL
	}

	l := newLifecycle(config, store, publisher)
	_, err := l.Invite(contextOrBackground(ctx), invitation.Params{
		Email:      inviteEmail,
		Message:    inviteMessage,
		EntityID:   inviteEntity,
		ReferrerID: inviteReferrer,
		ValidTill:  time.Now().Add(ttl),
	}, nil)
	if err != nil {
		logrus.Fatalf("Error creating invitation: %+v", err)
	}

	printJSON(out, l.Get())
}

func printJSON(out io.Writer, v interface{}) {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logrus.Fatalf("Error printing result: %+v", err)
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
