package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/cache"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		name       string
		password   string
		email      string
		role       string
		configPath string
		verbose    bool
	)

	flag.StringVar(&name, "name", "Administrador", "Nome do usuário")
	flag.StringVar(&password, "password", "", "Senha do usuário")
	flag.StringVar(&email, "email", "", "Email do usuário")
	flag.StringVar(&role, "role", string(model.RoleSuperAdmin), "Tipo de usuário (SUPER_ADMIN, ADMIN)")
	flag.StringVar(&configPath, "config", "./config", "Diretório do arquivo config.yaml")
	flag.BoolVar(&verbose, "verbose", false, "Mostrar logs detalhados")
	flag.Parse()

	if password == "" || email == "" {
		fmt.Println("Erro: password e email não podem ser vazios.")
		flag.Usage()
		os.Exit(1)
	}

	userRole := model.Role(role)
	if !userRole.IsAdministrative() {
		fmt.Printf("Erro: tipo de usuário %q não é administrativo.\n", role)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	if len(password) < cfg.Auth.PasswordMinLen {
		fmt.Printf("Erro: a senha deve ter pelo menos %d caracteres.\n", cfg.Auth.PasswordMinLen)
		os.Exit(1)
	}

	// Só mostra erros, a menos que -verbose seja informado
	zapCfg := zap.NewProductionConfig()
	if !verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		zapCfg.OutputPaths = []string{"stderr"}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        database.LogLevelError,
		SlowThreshold:   cfg.Database.SlowThreshold,
		MigrationDir:    cfg.Database.MigrationDir,
		SkipMigrations:  cfg.Database.SkipMigrations,
	}, logger)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// A ferramenta não precisa do Redis; o cache local basta para o processo curto
	store := cache.NewStore(nil, cache.NewMemoryCache(time.Minute, time.Minute, nil, logger), logger)
	users := user.NewService(
		database.NewUserRepository(db.DB(), logger, db.QueryTimeout()),
		store,
		logger,
		user.WithBcryptCost(cfg.Auth.BcryptCost),
	)

	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		fmt.Printf("Erro ao verificar usuário existente: %v\n", err)
		os.Exit(1)
	}

	isUpdate := u != nil
	if isUpdate {
		fmt.Printf("Usuário '%s' já existe. Deseja redefinir a senha e o tipo? (s/n): ", email)
		var response string
		fmt.Scanln(&response)

		if response != "s" && response != "S" {
			fmt.Println("Operação cancelada pelo usuário.")
			os.Exit(0)
		}

		u.Role = userRole
		u.Active = true
	} else {
		u = users.New(name, email, userRole)
	}

	if err := u.SetPassword(password); err != nil {
		fmt.Printf("Erro ao processar senha: %v\n", err)
		os.Exit(1)
	}

	if err := u.Save(ctx); err != nil {
		fmt.Printf("Erro ao salvar usuário no banco de dados: %v\n", err)
		os.Exit(1)
	}

	if isUpdate {
		fmt.Println("\nAdministrador atualizado com sucesso")
	} else {
		fmt.Println("\nAdministrador criado com sucesso")
	}
	fmt.Println("------------------------------------------")
	fmt.Printf("UUID:  %s\n", u.UUID)
	fmt.Printf("Email: %s\n", u.Email)
	fmt.Printf("Tipo:  %s\n", u.Role)
	fmt.Println("------------------------------------------")
	fmt.Println("\nGere um token de acesso com:")
	fmt.Printf("go run ./cmd/tools/generate_token -email=%s\n\n", u.Email)
}
