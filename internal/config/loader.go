package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load はカレントディレクトリの.envと環境変数から設定を読み込む。
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile は指定した.envファイルと環境変数から設定を読み込む。
// ファイルが存在しない場合は環境変数のみを使う。既存の環境変数は上書きしない。
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("環境変数のバインドに失敗: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定のデシリアライズに失敗: %w", err)
	}
	cfg.finalize()
	return &cfg, nil
}
