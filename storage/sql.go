package storage

import (
	"context"
	"fmt"
	"time"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/tigrisdata/inviter/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	PostgresDriver = "postgres"
	MySQLDriver    = "mysql"
	SQLiteDriver   = "sqlite"
)

// IsSQLDriver reports whether driver is served by OpenSQL.
func IsSQLDriver(driver string) bool {
	switch driver {
	case PostgresDriver, MySQLDriver, SQLiteDriver:
		return true
	}
	return false
}

// mysqlDSN parses dsn and turns on time parsing, which the invitation deadlines need.
// Cloud SQL instances are reached with the "cloudsql" network, e.g.
// user:pass@cloudsql(project:region:instance)/inviter.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parsing mysql dsn")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// OpenSQL opens a gorm connection for the given driver name.
func OpenSQL(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case PostgresDriver:
		dialector = postgres.Open(dsn)
	case MySQLDriver:
		formatted, err := mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(formatted)
	case SQLiteDriver:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driver)
	}
	return db, nil
}

// Migrate creates or updates the invitation table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Invitation{})
}

// SQLStore keeps invitations in a relational table through gorm.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, errors.Wrap(err, "inserting invitation failed")
	}
	return inv, nil
}

func (s *SQLStore) FindByCode(ctx context.Context, code string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.InvitationNotFoundError{Code: code}
		}
		return nil, errors.Wrap(err, "reading invitation failed")
	}
	return &inv, nil
}

// Update rewrites the mutable fields of the invitation with inv.Code in a single
// statement guarded by the expected status, so only one of several racing writers wins.
func (s *SQLStore) Update(ctx context.Context, inv *models.Invitation, expected models.Status) error {
	res := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("code = ? AND status = ?", inv.Code, expected).
		Updates(map[string]interface{}{
			"email":          inv.Email,
			"message":        inv.Message,
			"entity_id":      inv.EntityID,
			"referrer_id":    inv.ReferrerID,
			"valid_till":     inv.ValidTill,
			"status":         inv.Status,
			"status_message": inv.StatusMessage,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating invitation failed")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := s.FindByCode(ctx, inv.Code); err != nil {
		return err
	}
	return &models.StatusConflictError{Code: inv.Code, Expected: expected}
}

// List returns the invitations matching f, newest first.
func (s *SQLStore) List(ctx context.Context, f models.InvitationFilter) ([]*models.Invitation, error) {
	query := s.db.WithContext(ctx).Model(&models.Invitation{})
	if f.Email != "" {
		query = query.Where("email = ?", f.Email)
	}
	if f.EntityID != "" {
		query = query.Where("entity_id = ?", f.EntityID)
	}
	if f.ReferrerID != 0 {
		query = query.Where("referrer_id = ?", f.ReferrerID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	invitations := []*models.Invitation{}
	if err := query.Order("invitation_date DESC").Order("code").Find(&invitations).Error; err != nil {
		return nil, errors.Wrap(err, "listing invitations failed")
	}
	return invitations, nil
}
