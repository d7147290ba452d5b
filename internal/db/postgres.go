package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jarboard/backend/internal/config"
	"github.com/jarboard/backend/internal/logger"
	"github.com/jarboard/backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(cfg config.Postgres, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Jar{},
		&types.Tag{},
		&types.Todo{},
		&types.Note{},
		&types.JarLink{},
		&types.TagLink{},
		&types.JarTagLink{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

// ChangeChannel is the NOTIFY channel the realtime listener subscribes to.
const ChangeChannel = "jarboard_changes"

// changeCaptureTables are the tables whose row changes feed the realtime
// pipeline. Link and join tables are deliberately excluded: clients refetch
// an entity's links along with the entity itself.
var changeCaptureTables = []string{"todo", "jar", "tag", "note"}

// SetupChangeCapture installs the trigger function and per-table triggers
// that turn row changes into pg_notify payloads for the listener.
func (s *PostgresService) SetupChangeCapture() error {
	s.log.Info("Installing change capture triggers...")

	fn := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION jarboard_notify_change() RETURNS trigger AS $$
DECLARE
  rec RECORD;
BEGIN
  IF TG_OP = 'DELETE' THEN
    rec := OLD;
  ELSE
    rec := NEW;
  END IF;
  PERFORM pg_notify('%s', json_build_object(
    'table', TG_TABLE_NAME,
    'operation', TG_OP,
    'user_id', rec.user_id,
    'id', rec.id,
    'timestamp', to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"')
  )::text);
  RETURN rec;
END;
$$ LANGUAGE plpgsql;`, ChangeChannel)
	if err := s.db.Exec(fn).Error; err != nil {
		return fmt.Errorf("create change notify function: %w", err)
	}

	for _, table := range changeCaptureTables {
		drop := fmt.Sprintf(`DROP TRIGGER IF EXISTS %s_change_capture ON "%s";`, table, table)
		if err := s.db.Exec(drop).Error; err != nil {
			return fmt.Errorf("drop trigger on %s: %w", table, err)
		}
		create := fmt.Sprintf(`
CREATE TRIGGER %s_change_capture
AFTER INSERT OR UPDATE OR DELETE ON "%s"
FOR EACH ROW EXECUTE FUNCTION jarboard_notify_change();`, table, table)
		if err := s.db.Exec(create).Error; err != nil {
			return fmt.Errorf("create trigger on %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
