package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tigrisdata/inviter/api"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/storage"
)

var serveCmd = cobra.Command{
	Use:  "serve",
	Long: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		execWithConfig(cmd, serve)
	},
}

func serve(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, store storage.Store, publisher invitation.Publisher) {
	api := api.NewAPIWithVersion(context.Background(), globalConfig, config, store, publisher, Version)

	l := fmt.Sprintf("%v:%v", globalConfig.API.Host, globalConfig.API.Port)
	log.Info().Msgf("Inviter API started on: %s", l)
	api.ListenAndServe(l)
}
