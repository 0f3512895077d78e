package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blues/smartfarmer/internal/config"
	"github.com/blues/smartfarmer/internal/database"
	"github.com/blues/smartfarmer/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewRootCmd 构建运维命令树
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sfctl",
		Short: "SmartFarmer operations tool",
		Long: `sfctl runs maintenance tasks against the SmartFarmer database.

It reads the same config.yaml and SF_* environment variables as the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./config.yaml)")

	loadConfig := func() (*config.Config, error) {
		cfg := config.LoadFrom(configPath)
		if err := logger.Init(cfg.Log); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(newMigrateCmd(loadConfig))
	rootCmd.AddCommand(newPayoutCmd(loadConfig))
	rootCmd.AddCommand(newROICmd(loadConfig))
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

type configLoader func() (*config.Config, error)

// openDB 连接数据库并迁移
func openDB(load configLoader) (*config.Config, *gorm.DB, func(), error) {
	cfg, err := load()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logger.Sync()
	}
	return cfg, db, closeFn, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
