package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/models"
	tconf "github.com/tigrisdata/tigris-client-go/config"
	"github.com/tigrisdata/tigris-client-go/driver"
	"github.com/tigrisdata/tigris-client-go/tigris"
)

const dialAttempts = 3

// Client connects to tigris, creating the configured project when it is missing.
func Client(ctx context.Context, config *conf.GlobalConfiguration) (*tigris.Client, error) {
	logrus.Infof("creating tigris driver for url: %s project: %s", config.DB.URL, config.DB.Project)

	var drv driver.Driver
	var err error
	dbConfig := &tconf.Driver{
		Branch: config.DB.Branch,
		URL:    config.DB.URL,
	}
	if config.DB.Token != "" {
		dbConfig.Token = config.DB.Token
	} else {
		dbConfig.ClientID = config.DB.ClientId
		dbConfig.ClientSecret = config.DB.ClientSecret
	}
	for i := 0; i < dialAttempts; i++ {
		drv, err = driver.NewDriver(ctx, dbConfig)
		if err != nil {
			logrus.WithError(err).Warn("Failed to create Tigris driver. Retrying")
			time.Sleep(5 * time.Second)
			continue
		}

		if _, err = drv.Health(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to health check tigris. Retrying")
			time.Sleep(5 * time.Second)
			continue
		}
		break
	}

	if err != nil {
		logrus.WithError(err).Error("Failed to construct Tigris driver")
		return nil, err
	}
	logrus.Infof("creating tigris driver successful for url: %s project: %s", config.DB.URL, config.DB.Project)

	_, err = drv.CreateProject(ctx, config.DB.Project)
	if err != nil && err.Error() != "project already exist" {
		logrus.Errorf("Failed to create tigris project: %+v", err)
		return nil, err
	}

	tigrisConfig := &tigris.Config{
		URL:     config.DB.URL,
		Project: config.DB.Project,
		Branch:  config.DB.Branch,
	}
	if config.DB.Token != "" {
		tigrisConfig.Token = config.DB.Token
	} else {
		tigrisConfig.ClientID = config.DB.ClientId
		tigrisConfig.ClientSecret = config.DB.ClientSecret
	}
	return tigris.NewClient(ctx, tigrisConfig)
}

// OpenDatabase dials tigris and opens the database holding the invitation collection.
func OpenDatabase(ctx context.Context, config *conf.GlobalConfiguration) (*tigris.Database, error) {
	client, err := Client(ctx, config)
	if err != nil {
		return nil, err
	}
	return client.OpenDatabase(ctx, &models.Invitation{})
}
