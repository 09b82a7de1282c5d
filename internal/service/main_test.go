package service

import (
	"os"
	"testing"

	"linkai-core-go/pkg/log"
)

func TestMain(m *testing.M) {
	// 配额服务在拒绝请求时会记日志，测试里也要有可用的 logger。
	log.Init("error", "console", "")
	os.Exit(m.Run())
}
