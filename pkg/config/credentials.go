package config

import (
	"github.com/betbot/anboto/pkg/secretstore"
	sdkhttp "github.com/betbot/anboto/pkg/sdk/http"
	"github.com/betbot/anboto/trading/client"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
)

// Credentials 解析 API 凭证
// 优先使用环境变量 ANBOTO_API_KEY / ANBOTO_API_SECRET，否则从加密凭证存储读取
func (c *Config) Credentials() (*types.Credentials, error) {
	if c.APIKey != "" || c.APISecret != "" {
		if c.APIKey == "" || c.APISecret == "" {
			return nil, types.NewConfigurationError("credentials", "ANBOTO_API_KEY 与 ANBOTO_API_SECRET 必须同时配置")
		}
		return signing.ParseCredentials(c.APIKey, c.APISecret)
	}

	if c.SecretStore.Path == "" {
		return nil, types.NewConfigurationError("credentials", "未配置 API 凭证（环境变量或 secret_store.path）")
	}

	key, err := secretstore.ParseKey(c.SecretStore.Key)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "secret_store.key", Reason: "密钥格式错误", Err: err}
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          c.SecretStore.Path,
		EncryptionKey: key,
		ReadOnly:      true,
	})
	if err != nil {
		return nil, &types.ConfigurationError{Field: "secret_store.path", Reason: "打开凭证存储失败", Err: err}
	}
	defer store.Close()

	apiKey, secret, found, err := store.LoadCredentials()
	if err != nil {
		return nil, &types.ConfigurationError{Field: "secret_store", Reason: "读取凭证失败", Err: err}
	}
	if !found {
		return nil, types.NewConfigurationError("secret_store", "凭证存储中没有 API 凭证")
	}
	return signing.ParseCredentials(apiKey, secret)
}

// ClientOptions 转换为客户端选项
func (c *Config) ClientOptions() client.Options {
	opts := client.Options{
		BaseURL:    c.BaseURL,
		RecvWindow: c.RecvWindow,
		SideFormat: types.SideFormat(c.SideFormat),
		HTTP: sdkhttp.Options{
			Timeout:    c.Timeout(),
			RetryCount: c.RetryCount,
			ProxyURL:   c.Proxy,
		},
	}
	if c.IDFormat == IDFormatUUID {
		opts.IDGenerator = signing.UUIDGenerator{}
	}
	return opts
}
