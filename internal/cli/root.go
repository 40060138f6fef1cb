package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions 是所有子命令共享的全局参数。
type RootOptions struct {
	Verbose bool
}

// NewRootCommand 构建 graphsink 命令行入口。
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "graphsink",
		Short: "graphsink - translate change events into batched Cypher",
		Long: `graphsink turns change events into parameterized Cypher statements
using the cud, node_pattern, relationship_pattern or template strategy,
and writes them to Neo4j in batches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))

	return cmd
}
