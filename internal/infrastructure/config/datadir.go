package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvDataDir 数据目录（SQLite 文件等）
	EnvDataDir = "FORMABOT_DATA_DIR"
	// EnvXDGDataHome 未设置 FORMABOT_DATA_DIR 时使用
	EnvXDGDataHome = "XDG_DATA_HOME"

	appDirName = "formabot"
)

// DataDir 解析数据目录，依次尝试：
// FORMABOT_DATA_DIR → $XDG_DATA_HOME/formabot → ~/.local/share/formabot → ./data
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	if xdg := os.Getenv(EnvXDGDataHome); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", appDirName)
	}
	return "data"
}
