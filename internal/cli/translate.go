package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphsink/internal/strategy"
	"graphsink/pkg/logging"
)

// NewTranslateCommand 构建 translate 命令：只翻译不写入，输出 JSON。
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &strategyFlags{}
	var input string
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate entities into Cypher statements without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.NewCLILogger(rootOpts.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := flags.build()
			if err != nil {
				return err
			}
			entities, err := readEntities(cmd, input)
			if err != nil {
				return err
			}
			result, err := strategy.Events(st, entities)
			if err != nil {
				return err
			}
			logger.Debug("translated entities",
				zap.Int("entities", len(entities)),
				zap.Int("statements", len(result.Events)),
				zap.Int("invalid", len(result.InvalidEvents)))
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON array of entities, - for stdin")
	return cmd
}
