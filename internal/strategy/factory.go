package strategy

import (
	"errors"
	"fmt"
	"strings"

	"graphsink/internal/pattern"
)

// ErrUnknownStrategy 表示配置中的策略名不存在。
var ErrUnknownStrategy = errors.New("unknown strategy")

// Config 是 sink 配置中选择策略的部分。
type Config struct {
	Strategy string         `yaml:"strategy"`
	Pattern  string         `yaml:"pattern"`
	Template TemplateConfig `yaml:"template"`
}

// TemplateConfig 配置模板策略；Row 为空时直接使用 value。
type TemplateConfig struct {
	Query string `yaml:"query"`
	Row   string `yaml:"row"`
}

// FromConfig 构造策略；pattern 与行表达式在这里一次性校验。
func FromConfig(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case KindCUD:
		return NewCUD(), nil
	case KindNodePattern:
		conf, err := pattern.ParseNode(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		return NewNodePattern(conf), nil
	case KindRelationshipPattern:
		conf, err := pattern.ParseRelationship(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		return NewRelationshipPattern(conf), nil
	case KindTemplate:
		if strings.TrimSpace(cfg.Template.Query) == "" {
			return nil, errors.New("template strategy requires template.query")
		}
		var row RowFunc
		if cfg.Template.Row != "" {
			var err error
			if row, err = ExprRow(cfg.Template.Row); err != nil {
				return nil, err
			}
		}
		return NewTemplate(cfg.Template.Query, row), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}
