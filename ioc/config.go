package ioc

import (
	"os"
	"strings"

	"graphsink/internal/app"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configPathEnv     = "GRAPHSINK_CONFIG"
)

// InitConfig 读取应用配置，路径可由 GRAPHSINK_CONFIG 覆盖。
func InitConfig() (app.Config, error) {
	path := strings.TrimSpace(os.Getenv(configPathEnv))
	if path == "" {
		path = defaultConfigPath
	}
	return app.LoadConfig(path)
}
