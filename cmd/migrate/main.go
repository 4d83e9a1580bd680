package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var (
		action       string
		name         string
		configPath   string
		driver       string
		dsn          string
		migrationDir string
	)

	flag.StringVar(&action, "action", "migrate", "Ação (migrate, status, create)")
	flag.StringVar(&name, "name", "", "Nome da migração (apenas para action=create)")
	flag.StringVar(&configPath, "config", "./config", "Diretório do arquivo config.yaml")
	flag.StringVar(&driver, "driver", "", "Sobrescreve database.driver (sqlite, mysql, postgres)")
	flag.StringVar(&dsn, "dsn", "", "Sobrescreve database.dsn")
	flag.StringVar(&migrationDir, "dir", "", "Sobrescreve database.migrationDir")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger("info", "console", false)
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dbConfig := database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        database.LogLevelInfo,
		SlowThreshold:   cfg.Database.SlowThreshold,
		MigrationDir:    cfg.Database.MigrationDir,
	}
	if driver != "" {
		dbConfig.Driver = driver
	}
	if dsn != "" {
		dbConfig.DSN = dsn
	}
	if migrationDir != "" {
		dbConfig.MigrationDir = migrationDir
	}

	ctx := context.Background()

	switch action {
	case "migrate":
		// NewDatabase aplica o AutoMigrate e os arquivos .sql pendentes
		db, err := database.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			logger.Fatal("Falha ao aplicar migrações", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Migrações aplicadas com sucesso", zap.String("driver", dbConfig.Driver))

	case "status":
		dbConfig.SkipMigrations = true
		db, err := database.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			logger.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
		}
		defer db.Close()

		statuses, err := db.MigrationStatus(ctx)
		if err != nil {
			logger.Fatal("Falha ao consultar migrações", zap.Error(err))
		}

		for _, st := range statuses {
			state := "pendente"
			if st.AppliedAt != nil {
				state = "aplicada em " + st.AppliedAt.Format(time.RFC3339)
			}
			if st.Modified {
				state += " (arquivo alterado depois da aplicação)"
			}
			dialect := st.Dialect
			if dialect == "" {
				dialect = "todos"
			}
			fmt.Printf("%014d  %-40s  %-9s  %-8s  %s\n", st.Version, st.Name, st.Source, dialect, state)
		}

	case "create":
		if name == "" {
			logger.Fatal("Nome da migração é obrigatório para action=create")
		}

		dbConfig.SkipMigrations = true
		db, err := database.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			logger.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
		}
		defer db.Close()

		path, err := db.CreateMigration(name)
		if err != nil {
			logger.Fatal("Falha ao criar migração", zap.Error(err))
		}

		logger.Info("Migração criada", zap.String("path", path))

	default:
		logger.Fatal("Ação desconhecida", zap.String("action", action))
	}
}
