package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/cache"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/security"
	"go.uber.org/zap"
)

func main() {
	var (
		email      string
		configPath string
		duration   time.Duration
	)

	flag.StringVar(&email, "email", "", "Email do usuário")
	flag.StringVar(&configPath, "config", "./config", "Diretório do arquivo config.yaml")
	flag.DurationVar(&duration, "duration", 0, "Validade do token (padrão: auth.tokenExpiration)")
	flag.Parse()

	if email == "" {
		fmt.Println("Erro: o email do usuário não pode ser vazio.")
		fmt.Println("Uso: go run ./cmd/tools/generate_token -email=<email>")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	if duration <= 0 {
		duration = cfg.Auth.TokenExpiration
	}

	logger := zap.NewNop()

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, database.Config{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		MaxIdleConns:   1,
		MaxOpenConns:   2,
		QueryTimeout:   cfg.Database.QueryTimeout,
		LogLevel:       database.LogLevelSilent,
		SkipMigrations: true,
	}, logger)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store := cache.NewStore(nil, cache.NewMemoryCache(time.Minute, time.Minute, nil, logger), logger)
	users := user.NewService(database.NewUserRepository(db.DB(), logger, db.QueryTimeout()), store, logger)

	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		fmt.Printf("Erro ao buscar usuário: %v\n", err)
		os.Exit(1)
	}
	if u == nil || !u.Active {
		fmt.Printf("Erro: usuário '%s' não encontrado ou inativo.\n", email)
		os.Exit(1)
	}

	keyManager, err := security.NewKeyManager(security.GetJWTSecret(cfg), logger)
	if err != nil {
		fmt.Printf("Erro: %v\n", err)
		fmt.Printf("Configure %s ou auth.jwtSecret no config.yaml\n", security.JWTSecretEnv)
		os.Exit(1)
	}

	tokenString, err := keyManager.GenerateToken(u.UUID, string(u.Role), duration)
	if err != nil {
		fmt.Printf("Erro ao gerar token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nToken JWT gerado:")
	fmt.Println("------------------------------------------")
	fmt.Println(tokenString)
	fmt.Println("------------------------------------------")
	fmt.Printf("\nUsuário: %s (%s)\n", u.Email, u.UUID)
	fmt.Printf("Tipo: %s\n", u.Role)
	fmt.Printf("Expira em: %s\n", time.Now().Add(duration).Format(time.RFC3339))
	fmt.Println("\nUse este token no cabeçalho Authorization:")
	fmt.Printf("Authorization: Bearer %s\n", tokenString)
}
