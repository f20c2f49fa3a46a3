package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHeadersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "headers.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestHeaderManager_Merge 测试头部合并优先级
func TestHeaderManager_Merge(t *testing.T) {
	t.Run("默认头部始终存在", func(t *testing.T) {
		path := writeHeadersFile(t, "headers: {}\n")
		hm, err := NewHeaderManager(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatal(err)
		}
		if headers.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("缺少默认User-Agent, 得到: %s", headers.Get("User-Agent"))
		}
		if headers.Get("Accept-Encoding") == "" {
			t.Error("缺少默认Accept-Encoding")
		}
	})

	t.Run("配置文件覆盖默认", func(t *testing.T) {
		path := writeHeadersFile(t, "headers:\n  User-Agent: ConfigBot/1.0\n")
		hm, err := NewHeaderManager(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatal(err)
		}
		if got := headers.Get("User-Agent"); got != "ConfigBot/1.0" {
			t.Errorf("配置文件应覆盖默认, 得到: %s", got)
		}
	})

	t.Run("命令行覆盖配置文件", func(t *testing.T) {
		path := writeHeadersFile(t, "headers:\n  User-Agent: ConfigBot/1.0\n")
		hm, err := NewHeaderManager(path, []string{"User-Agent: CliBot/2.0"})
		if err != nil {
			t.Fatal(err)
		}
		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatal(err)
		}
		if got := headers.Get("User-Agent"); got != "CliBot/2.0" {
			t.Errorf("命令行应有最高优先级, 得到: %s", got)
		}
	})

	t.Run("非法命令行头部在构造时报错", func(t *testing.T) {
		path := writeHeadersFile(t, "headers: {}\n")
		if _, err := NewHeaderManager(path, []string{"没有冒号"}); err == nil {
			t.Error("非法命令行头部应报错")
		}
	})

	t.Run("禁止头部验证失败", func(t *testing.T) {
		path := writeHeadersFile(t, "headers:\n  Host: evil.test\n")
		hm, err := NewHeaderManager(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := hm.GetHeaders(); err == nil {
			t.Error("禁止头部应验证失败")
		}
	})

	t.Run("敏感头部在日志输出中脱敏", func(t *testing.T) {
		path := writeHeadersFile(t, "headers: {}\n")
		hm, err := NewHeaderManager(path, []string{"Authorization: Bearer secret"})
		if err != nil {
			t.Fatal(err)
		}
		if err := hm.LoadConfig(); err != nil {
			t.Fatal(err)
		}
		safe := hm.GetSafeHeaders()
		if safe["Authorization"] != "Bearer ***" {
			t.Errorf("敏感头部未脱敏: %s", safe["Authorization"])
		}
	})
}
