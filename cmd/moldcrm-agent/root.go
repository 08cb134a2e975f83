package main

import (
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/moldcrm/agent/pkg/agent/domain"
	"github.com/moldcrm/agent/pkg/agent/inference"
	"github.com/moldcrm/agent/pkg/agent/orchestrator"
	"github.com/moldcrm/agent/pkg/agent/tools"
	"github.com/moldcrm/agent/pkg/crm/memstore"
	"github.com/moldcrm/agent/pkg/crm/toolpack"
	"github.com/moldcrm/agent/pkg/history"
)

const catalogVersion = "crm-v1"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moldcrm-agent",
		Short: "CRM assistant agent over the MoldCRM tool set",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cmd); err != nil {
				return err
			}
			initLogging()
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("log-level", "info", "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().String("openai-api-key", "", "OpenAI API key (env MOLDCRM_OPENAI_API_KEY)")
	cmd.PersistentFlags().String("model", "", "chat model, defaults to gpt-4o-mini")
	cmd.PersistentFlags().Int64("account", 1, "account the agent acts for")
	cmd.PersistentFlags().Int64("user", 1, "acting user within the account")
	cmd.PersistentFlags().String("redis-addr", "", "Redis address for conversation history, empty for in-memory")
	cmd.PersistentFlags().String("script", "", "YAML gateway script for offline runs, bypasses OpenAI")
	cmd.PersistentFlags().String("config", "", "config file path")

	cmd.AddCommand(queryCmd(), suggestCmd(), toolsCmd())
	return cmd
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("MOLDCRM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

func initLogging() {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func buildCatalog() (*tools.Catalog, error) {
	store := memstore.New()
	seedDemoData(store)
	return toolpack.BuildCatalog(store, catalogVersion)
}

func buildOrchestrator(catalog *tools.Catalog) (*orchestrator.Orchestrator, error) {
	var gateway inference.Gateway
	if script := viper.GetString("script"); script != "" {
		raw, err := os.ReadFile(script)
		if err != nil {
			return nil, err
		}
		gateway, err = inference.LoadScript(raw)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", script).Msg("cli: using scripted gateway")
	} else {
		apiKey := viper.GetString("openai-api-key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		gateway = inference.NewOpenAIGateway(apiKey, viper.GetString("model"))
	}
	return orchestrator.New(
		orchestrator.WithGateway(gateway),
		orchestrator.WithCatalog(catalog),
		orchestrator.WithInvoker(domain.NewCapabilityInvoker(10*time.Second)),
	)
}

func buildHistoryStore() history.Store {
	addr := viper.GetString("redis-addr")
	if addr == "" {
		return history.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	log.Debug().Str("addr", addr).Msg("cli: using redis history store")
	return history.NewRedisStore(client)
}

func scopeFromFlags() tools.Scope {
	return tools.Scope{
		AccountID: viper.GetInt64("account"),
		UserID:    viper.GetInt64("user"),
	}
}
