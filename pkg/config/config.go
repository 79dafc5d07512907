package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/anboto/trading/types"
	"gopkg.in/yaml.v3"
)

// 环境变量前缀
const envPrefix = "ANBOTO_"

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// SecretStoreConfig 凭证存储配置
type SecretStoreConfig struct {
	Path string `yaml:"path" json:"path"`
	// Key 为 32 字节加密密钥（hex 或 base64），建议只通过环境变量 ANBOTO_SECRETSTORE_KEY 提供
	Key string `yaml:"-" json:"-"`
}

// Config 应用配置
// 优先级：环境变量 > 配置文件 > 默认值
type Config struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	RecvWindow     int64  `yaml:"recv_window" json:"recv_window"`         // 毫秒
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"` // HTTP 超时
	RetryCount     int    `yaml:"retry_count" json:"retry_count"`         // 仅网络错误重试，默认 0
	Proxy          string `yaml:"proxy" json:"proxy"`
	SideFormat     string `yaml:"side_format" json:"side_format"` // string | numeric
	IDFormat       string `yaml:"id_format" json:"id_format"`     // counter | uuid
	MetricsAddr    string `yaml:"metrics_addr" json:"metrics_addr"`

	Log         LogConfig         `yaml:"log" json:"log"`
	SecretStore SecretStoreConfig `yaml:"secret_store" json:"secret_store"`

	// 凭证只从环境变量读取，不写入配置文件
	APIKey    string `yaml:"-" json:"-"`
	APISecret string `yaml:"-" json:"-"`
}

// 默认值
const (
	DefaultBaseURL        = "https://api.anboto.xyz/api/v2/trading"
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "info"
	IDFormatCounter       = "counter"
	IDFormatUUID          = "uuid"
)

// Default 默认配置
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RecvWindow:     types.DefaultRecvWindow,
		TimeoutSeconds: DefaultTimeoutSeconds,
		SideFormat:     string(types.SideFormatString),
		IDFormat:       IDFormatCounter,
		Log:            LogConfig{Level: DefaultLogLevel},
	}
}

// Load 加载配置；filePath 为空时只使用环境变量与默认值
func Load(filePath string) (*Config, error) {
	cfg := Default()
	if filePath != "" {
		if err := loadConfigFile(filePath, cfg); err != nil {
			return nil, &types.ConfigurationError{Field: "config_file", Reason: "加载配置文件失败 " + filePath, Err: err}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.Proxy = getEnv("PROXY", c.Proxy)
	c.SideFormat = getEnv("SIDE_FORMAT", c.SideFormat)
	c.IDFormat = getEnv("ID_FORMAT", c.IDFormat)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.SecretStore.Path = getEnv("SECRETSTORE_PATH", c.SecretStore.Path)
	c.SecretStore.Key = getEnv("SECRETSTORE_KEY", c.SecretStore.Key)
	c.APIKey = getEnv("API_KEY", c.APIKey)
	c.APISecret = getEnv("API_SECRET", c.APISecret)

	var err error
	if c.RecvWindow, err = parseInt64Env("RECV_WINDOW", c.RecvWindow); err != nil {
		return err
	}
	if c.TimeoutSeconds, err = parseIntEnv("TIMEOUT_SECONDS", c.TimeoutSeconds); err != nil {
		return err
	}
	if c.RetryCount, err = parseIntEnv("RETRY_COUNT", c.RetryCount); err != nil {
		return err
	}
	if c.Log.JSON, err = parseBoolEnv("LOG_JSON", c.Log.JSON); err != nil {
		return err
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return types.NewConfigurationError("base_url", "不能为空")
	}
	if c.RecvWindow <= 0 || c.RecvWindow > 60000 {
		return types.NewConfigurationError("recv_window", "必须在 1 到 60000 毫秒之间")
	}
	if c.TimeoutSeconds <= 0 {
		return types.NewConfigurationError("timeout_seconds", "必须大于 0")
	}
	if c.RetryCount < 0 {
		return types.NewConfigurationError("retry_count", "不能为负数")
	}
	switch types.SideFormat(c.SideFormat) {
	case types.SideFormatString, types.SideFormatNumeric:
	default:
		return types.NewConfigurationError("side_format", "必须为 string 或 numeric")
	}
	switch c.IDFormat {
	case IDFormatCounter, IDFormatUUID:
	default:
		return types.NewConfigurationError("id_format", "必须为 counter 或 uuid")
	}
	return nil
}

// Timeout HTTP 超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量，格式错误返回 ConfigurationError
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &types.ConfigurationError{Field: envPrefix + key, Reason: "不是整数", Err: err}
	}
	return parsed, nil
}

func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &types.ConfigurationError{Field: envPrefix + key, Reason: "不是整数", Err: err}
	}
	return parsed, nil
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, &types.ConfigurationError{Field: envPrefix + key, Reason: "不是布尔值", Err: err}
	}
	return parsed, nil
}
