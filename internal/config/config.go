// Package config はアプリケーション設定を環境変数から読み込む機能を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体。
type Config struct {
	// DatabaseURL はPostgreSQL接続文字列(必須)
	DatabaseURL string

	// DeleteSecret はコメント削除時に要求される共有シークレット。
	// 未設定の場合、削除APIは常に403を返す(削除不可)。
	DeleteSecret string

	// FetchTimeout はアンカー検証時のページ取得タイムアウト
	FetchTimeout time.Duration

	// FetchMaxSize はアンカー検証時のレスポンスボディ最大サイズ(バイト)
	FetchMaxSize int64

	// RateLimitGeneral は全APIリクエストに適用されるクライアント単位の毎分リクエスト数上限
	RateLimitGeneral int

	// RateLimitCreate はコメント作成に適用されるクライアント単位の毎分リクエスト数上限
	RateLimitCreate int

	// ReconcileInterval はミラーキー修復ワーカーの実行間隔
	ReconcileInterval time.Duration

	// StoreTimeout はストア操作のタイムアウト
	StoreTimeout time.Duration

	// ServerPort はHTTPサーバーのリッスンポート
	ServerPort string

	// AllowedOrigins はCORSで許可するオリジンのリスト。空ならワイルドカード。
	AllowedOrigins []string
}

// Load は環境変数から設定を読み込み、Configを返す。
// 必須の環境変数が設定されていない場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DeleteSecret:       os.Getenv("DELETE_SECRET"),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize:       getEnvInt64("FETCH_MAX_SIZE", 5*1024*1024),
		RateLimitGeneral:   getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitCreate:    getEnvInt("RATE_LIMIT_CREATE", 10),
		ReconcileInterval:  getEnvDuration("RECONCILE_INTERVAL", time.Hour),
		StoreTimeout:       getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		ServerPort:         getEnvString("SERVER_PORT", "8080"),
		AllowedOrigins:     splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// splitOrigins はカンマ区切りのオリジンリストをパースする。
// 空文字列の場合はnilを返す(全オリジン許可)。
func splitOrigins(value string) []string {
	if value == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(value, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnvString は環境変数を文字列として取得する。未設定の場合はデフォルト値を返す。
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt は環境変数を整数として取得する。未設定または不正な場合はデフォルト値を返す。
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 は環境変数をint64として取得する。未設定または不正な場合はデフォルト値を返す。
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration は環境変数をtime.Durationとして取得する。未設定または不正な場合はデフォルト値を返す。
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
