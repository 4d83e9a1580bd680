package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		outputPath string
		driver     string
		cacheType  string
		force      bool
	)

	flag.StringVar(&outputPath, "output", "config.yaml", "Caminho para o arquivo de configuração de saída")
	flag.StringVar(&driver, "driver", "postgres", "Driver do banco de dados (postgres, mysql, sqlite)")
	flag.StringVar(&cacheType, "cache", "redis", "Tipo de cache (redis, memory)")
	flag.BoolVar(&force, "force", false, "Sobrescrever arquivo se existir")
	flag.Parse()

	// Verificar se o arquivo já existe
	if _, err := os.Stat(outputPath); err == nil && !force {
		fmt.Printf("Erro: arquivo %s já existe. Use --force para sobrescrever.\n", outputPath)
		os.Exit(1)
	}

	settings := config.DefaultSettings()

	database := settings["database"].(map[string]interface{})
	database["driver"] = driver
	switch driver {
	case "sqlite":
		database["dsn"] = "file:hoteis.db?_pragma=busy_timeout(5000)"
	case "mysql":
		database["dsn"] = "root:root@tcp(localhost:3306)/hoteis?parseTime=true&charset=utf8mb4"
	}

	settings["cache"].(map[string]interface{})["type"] = cacheType
	settings["auth"].(map[string]interface{})["jwtsecret"] = "troque-por-um-segredo-com-pelo-menos-32-caracteres"

	data, err := yaml.Marshal(settings)
	if err != nil {
		fmt.Printf("Erro ao serializar configuração: %v\n", err)
		os.Exit(1)
	}

	yamlStr := string(data)

	// Documentar as opções menos óbvias
	re := regexp.MustCompile(`(\s+skipmigrations:\s+false)`)
	yamlStr = re.ReplaceAllString(yamlStr, `$1  # false aplica migrações (padrão), true pula`)
	re = regexp.MustCompile(`(\s+bcryptcost:\s+\d+)`)
	yamlStr = re.ReplaceAllString(yamlStr, `$1  # mínimo 10`)

	if err := os.WriteFile(outputPath, []byte(yamlStr), 0600); err != nil {
		fmt.Printf("Erro ao escrever arquivo: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Arquivo de configuração gerado em: %s\n", outputPath)
}
