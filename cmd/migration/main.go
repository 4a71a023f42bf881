package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hugohenrick/nfe-distribuicao/internal/config"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/database"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("DFE_CONFIG"), "arquivo de configuração YAML")
	down := flag.Bool("down", false, "desfaz a última migração")
	status := flag.Bool("status", false, "mostra a versão aplicada")
	flag.Parse()

	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: Arquivo .env não encontrado: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	switch {
	case *status:
		current, err := database.CurrentMigration(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Erro ao consultar migrações: %v", err)
		}
		appLogger.Info("Versão do banco de dados", "version", current.Version, "dirty", current.Dirty)
	case *down:
		if err := database.RollbackMigration(cfg.DatabaseURL, appLogger); err != nil {
			log.Fatalf("Erro ao desfazer migração: %v", err)
		}
	default:
		if err := database.RunMigrations(cfg.DatabaseURL, appLogger); err != nil {
			log.Fatalf("Erro ao executar migrações: %v", err)
		}
	}
}
