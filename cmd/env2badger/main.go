// env2badger 把 .env 中的 API 凭证导入加密凭证存储
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/anboto/pkg/secretstore"
	"github.com/betbot/anboto/trading/signing"
	"github.com/joho/godotenv"
)

func main() {
	var (
		inPath    = flag.String("in", ".env", "input .env file path")
		dbPath    = flag.String("badger", getenv("ANBOTO_SECRETSTORE_PATH", "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv("ANBOTO_SECRETSTORE_KEY", ""), "badger encryption key (32 bytes base64/hex)")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set ANBOTO_SECRETSTORE_KEY or pass -secret-key"))
	}

	kv, err := godotenv.Read(*inPath)
	if err != nil {
		fatal(err)
	}
	apiKey, apiSecret := kv["ANBOTO_API_KEY"], kv["ANBOTO_API_SECRET"]

	// 写入前确认 secret 可解码
	if _, err := signing.ParseCredentials(apiKey, apiSecret); err != nil {
		fatal(err)
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	if err := ss.StoreCredentials(apiKey, apiSecret); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "已导入 API 凭证到 badger：%s\n", *dbPath)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
