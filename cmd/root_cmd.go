package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/crypto"
	"github.com/tigrisdata/inviter/events"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/mailer"
	"github.com/tigrisdata/inviter/metering"
	"github.com/tigrisdata/inviter/storage"
	"github.com/tigrisdata/inviter/storage/namespace"
)

var configFile = ""

var rootCmd = cobra.Command{
	Use: "inviter",
	Run: func(cmd *cobra.Command, args []string) {
		execWithConfig(cmd, serve)
	},
}

// RootCommand will setup and return the root command
func RootCommand() *cobra.Command {
	rootCmd.AddCommand(&serveCmd, &migrateCmd, invitationsCmd(), &versionCmd)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")

	return &rootCmd
}

type commandFunc func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher)

func loadConfigs() (*conf.GlobalConfiguration, *conf.Configuration) {
	globalConfig, err := conf.LoadGlobal(configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %+v", err)
	}
	config, err := conf.LoadConfig(configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %+v", err)
	}
	namespace.SetNamespace(globalConfig.DB.Namespace)
	return globalConfig, config
}

func execWithConfig(cmd *cobra.Command, fn commandFunc) {
	globalConfig, config := loadConfigs()

	store := bootstrapStore(contextOrBackground(cmd.Context()), globalConfig)
	publisher := bootstrapPublisher(globalConfig, config)

	fn(globalConfig, config, store, publisher)
}

func execWithConfigAndArgs(cmd *cobra.Command, fn func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher, args []string), args []string) {
	execWithConfig(cmd, func(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher) {
		fn(globalConfig, config, store, publisher, args)
	})
}

func bootstrapStore(ctx context.Context, globalConfig *conf.GlobalConfiguration) storage.Store {
	switch {
	case storage.IsSQLDriver(globalConfig.DB.Driver):
		db, err := storage.OpenSQL(globalConfig.DB.Driver, globalConfig.DB.DSN, globalConfig.DB.Debug)
		if err != nil {
			logrus.Fatalf("Error opening database: %+v", err)
		}
		if globalConfig.DB.AutoMigrate {
			if err := storage.Migrate(db); err != nil {
				logrus.Fatalf("Error migrating database: %+v", err)
			}
		}
		return storage.NewSQLStore(db)
	default:
		db, err := storage.OpenDatabase(ctx, globalConfig)
		if err != nil {
			logrus.Fatalf("Error opening database: %+v", err)
		}
		return storage.NewTigrisStore(db)
	}
}

// bootstrapPublisher wires the audit log, the invitation mailer and the optional redis
// sink to the lifecycle events.
func bootstrapPublisher(globalConfig *conf.GlobalConfiguration, config *conf.Configuration) *events.Dispatcher {
	dispatcher := events.NewDispatcher()
	dispatcher.SubscribeAll(metering.RecordInvitationEvent)
	dispatcher.Subscribe(invitation.InvitedEvent, mailer.Listener(mailer.NewMailer(config), config))

	if url := globalConfig.Events.RedisURL; url != "" {
		sink, err := events.NewRedisSink(url, globalConfig.Events.ChannelPrefix)
		if err != nil {
			logrus.Fatalf("Error connecting to redis: %+v", err)
		}
		dispatcher.SubscribeAll(sink.Handle)
	}
	return dispatcher
}

func newLifecycle(config *conf.Configuration, store storage.Store, publisher invitation.Publisher) *invitation.Lifecycle {
	prefix := config.Invitation.CodePrefix
	return invitation.New(store, publisher, invitation.WithCodeGenerator(func() string {
		return crypto.InvitationCode(prefix)
	}))
}
