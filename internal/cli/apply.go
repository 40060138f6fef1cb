package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/pkg/logging"
)

// NewApplyCommand 构建 apply 命令：按配置把一批 entity 直接写入 Neo4j。
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath, input string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write a batch of entities to Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			logger, err := logging.NewCLILogger(rootOpts.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			entities, err := readEntities(cmd, input)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, err := app.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(ctx); err != nil {
					logger.Warn("close app service failed", zap.Error(err))
				}
			}()

			if err := svc.EnsureIndexes(ctx); err != nil {
				return err
			}
			report, err := svc.Apply(ctx, entities)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON array of entities, - for stdin")
	return cmd
}
