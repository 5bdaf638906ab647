package main

import (
	"fmt"
	"os"

	"course_chat_service/internal/client/api"
	"course_chat_service/pkg/config"
	"course_chat_service/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chat_client",
	Short: "Terminal client for the course chat service",
	Long: `chat_client opens a course chat in the terminal, keeps it in sync with
the chat service and lets you post, edit and delete your own messages.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Log = logger.InitializeFileOnly(config.EnvConfig.ChatClient, config.EnvConfig.ChatClientLogPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Log.Sync()
	},
}

// Execute run the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("server", "", "chat service url (default from chat_client.yaml)")
	rootCmd.PersistentFlags().String("user", "", "user id sent with requests, for servers in shared identity mode")
	rootCmd.PersistentFlags().String("name", "", "display name sent with --user")
}

// loadConfig chat_client.yaml overridden by flags
func loadConfig(cmd *cobra.Command) (config.ChatClient, error) {
	cfg, err := config.ReadConfig[config.ChatClient](config.EnvConfig.ChatClient, config.EnvConfig.ChatClientYAMLPath, config.ChatClientDefaults)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.UserID = v
	}
	if v, _ := cmd.Flags().GetString("name"); v != "" {
		cfg.DisplayName = v
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.UserID
	}
	return cfg, nil
}

func newClient(cfg config.ChatClient) (*api.Client, error) {
	var opts []api.Option
	if cfg.UserID != "" {
		opts = append(opts, api.WithIdentity(cfg.UserID, cfg.DisplayName))
	}
	return api.NewClient(cfg.ServerURL, opts...)
}
