package utils

import (
	"net/http"
	"strings"
	"testing"
)

// TestHeaderValidator 测试头部验证
func TestHeaderValidator(t *testing.T) {
	hv := NewHeaderValidator()

	t.Run("合法头部通过", func(t *testing.T) {
		headers := http.Header{
			"User-Agent":      []string{"Bot/1.0"},
			"X-Custom-Header": []string{"value"},
		}
		if err := hv.Validate(headers); err != nil {
			t.Errorf("合法头部被拒绝: %v", err)
		}
	})

	t.Run("禁止头部被拒绝", func(t *testing.T) {
		for _, name := range []string{"Host", "host", "Content-Length", "Connection"} {
			if err := hv.ValidateHeader(name, "x"); err == nil {
				t.Errorf("禁止头部 %s 应被拒绝", name)
			}
		}
	})

	t.Run("名称非法字符被拒绝", func(t *testing.T) {
		for _, name := range []string{"", "Bad Name", "名称", "X_Under"} {
			if err := hv.ValidateName(name); err == nil {
				t.Errorf("非法名称 '%s' 应被拒绝", name)
			}
		}
	})

	t.Run("值非ASCII被拒绝", func(t *testing.T) {
		if err := hv.ValidateValue("X-Test", "中文值"); err == nil {
			t.Error("非ASCII值应被拒绝")
		}
		if err := hv.ValidateValue("X-Test", "with\ncontrol"); err == nil {
			t.Error("控制字符应被拒绝")
		}
	})

	t.Run("超长值被拒绝", func(t *testing.T) {
		long := strings.Repeat("a", MaxHeaderValueLength+1)
		if err := hv.ValidateValue("X-Test", long); err == nil {
			t.Error("超长值应被拒绝")
		}
	})

	t.Run("空值允许", func(t *testing.T) {
		if err := hv.ValidateValue("X-Test", ""); err != nil {
			t.Errorf("空值应允许, 得到: %v", err)
		}
	})
}

// TestHeaderRedactor 测试头部脱敏
func TestHeaderRedactor(t *testing.T) {
	hr := NewHeaderRedactor()

	t.Run("Bearer令牌脱敏", func(t *testing.T) {
		got := hr.RedactHeaderValue("Authorization", "Bearer secret-token-value")
		if got != "Bearer ***" {
			t.Errorf("期望 'Bearer ***', 得到 '%s'", got)
		}
	})

	t.Run("长敏感值保留首尾", func(t *testing.T) {
		got := hr.RedactHeaderValue("X-Api-Key", "abcdefghijkl")
		if got != "abcd***ijkl" {
			t.Errorf("期望 'abcd***ijkl', 得到 '%s'", got)
		}
	})

	t.Run("短敏感值全遮蔽", func(t *testing.T) {
		got := hr.RedactHeaderValue("X-Token", "abc")
		if got != "***" {
			t.Errorf("期望 '***', 得到 '%s'", got)
		}
	})

	t.Run("非敏感头部原样返回", func(t *testing.T) {
		got := hr.RedactHeaderValue("User-Agent", "Bot/1.0")
		if got != "Bot/1.0" {
			t.Errorf("期望原值, 得到 '%s'", got)
		}
	})

	t.Run("整体脱敏只处理敏感项", func(t *testing.T) {
		headers := http.Header{
			"Authorization": []string{"Bearer abc"},
			"Accept":        []string{"*/*"},
		}
		safe := hr.Redact(headers)
		if safe["Authorization"] != "Bearer ***" {
			t.Errorf("Authorization未脱敏: %s", safe["Authorization"])
		}
		if safe["Accept"] != "*/*" {
			t.Errorf("Accept不应改变: %s", safe["Accept"])
		}
	})
}
