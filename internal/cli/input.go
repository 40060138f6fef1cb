package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"graphsink/internal/app"
	"graphsink/internal/domain"
	"graphsink/internal/strategy"
)

// strategyFlags 选择策略：指定 --config 时读取配置文件，否则使用命令行参数。
type strategyFlags struct {
	configPath string
	strategy   string
	pattern    string
	query      string
	row        string
}

func (f *strategyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file; its sink section selects the strategy")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", strategy.KindCUD, "strategy: cud, node_pattern, relationship_pattern, template")
	cmd.Flags().StringVarP(&f.pattern, "pattern", "p", "", "pattern for node_pattern or relationship_pattern")
	cmd.Flags().StringVar(&f.query, "query", "", "cypher fragment for the template strategy")
	cmd.Flags().StringVar(&f.row, "row", "", "row expression for the template strategy")
}

func (f *strategyFlags) config() strategy.Config {
	return strategy.Config{
		Strategy: f.strategy,
		Pattern:  f.pattern,
		Template: strategy.TemplateConfig{Query: f.query, Row: f.row},
	}
}

func (f *strategyFlags) build() (strategy.Strategy, error) {
	if f.configPath != "" {
		cfg, err := app.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		return strategy.FromConfig(cfg.Sink.Config)
	}
	return strategy.FromConfig(f.config())
}

// readEntities 从文件读取 entity 数组，路径为 "-" 时读取 stdin。
func readEntities(cmd *cobra.Command, path string) ([]domain.Entity, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		r = file
	}
	return domain.DecodeEntities(r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
