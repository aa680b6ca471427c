package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tigrisdata/inviter/storage"
)

var migrateCmd = cobra.Command{
	Use:  "migrate",
	Long: "Create or update the invitation schema",
	Run:  migrate,
}

func migrate(cmd *cobra.Command, args []string) {
	globalConfig, _ := loadConfigs()
	ctx := contextOrBackground(cmd.Context())

	switch {
	case storage.IsSQLDriver(globalConfig.DB.Driver):
		db, err := storage.OpenSQL(globalConfig.DB.Driver, globalConfig.DB.DSN, globalConfig.DB.Debug)
		if err != nil {
			logrus.Fatalf("Error opening database: %+v", err)
		}
		if err := storage.Migrate(db); err != nil {
			logrus.Fatalf("Error migrating database: %+v", err)
		}
	default:
		// opening the tigris database creates or evolves the collection schema
		if _, err := storage.OpenDatabase(ctx, globalConfig); err != nil {
			logrus.Fatalf("Error opening database: %+v", err)
		}
	}
	logrus.Infof("Invitation schema is up to date for driver %s", globalConfig.DB.Driver)
}
