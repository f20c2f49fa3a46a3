package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestNormalizeProfileURL 测试URL规范化
func TestNormalizeProfileURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"截断查询串", "https://x.test/public_profiles/u1?x=1&y=2", "https://x.test/public_profiles/u1"},
		{"截断片段", "https://x.test/public_profiles/u1#frag", "https://x.test/public_profiles/u1"},
		{"查询串在片段之前", "https://x.test/public_profiles/u1?a=1#b", "https://x.test/public_profiles/u1"},
		{"干净URL原样返回", "https://x.test/public_profiles/u1", "https://x.test/public_profiles/u1"},
		{"空字符串", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeProfileURL(tt.input); got != tt.want {
				t.Errorf("期望 '%s', 得到 '%s'", tt.want, got)
			}
		})
	}
}

// TestValidateProfileURL 测试档案URL验证
func TestValidateProfileURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"合法档案URL", "https://x.test/public_profiles/u1", false},
		{"http协议也接受", "http://x.test/public_profiles/u1", false},
		{"缺少档案片段", "https://x.test/other/u1", true},
		{"非HTTP协议", "ftp://x.test/public_profiles/u1", true},
		{"缺少主机名", "https:///public_profiles/u1", true},
		{"空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfileURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProfileURL(%q) 错误状态: %v, 期望出错: %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// TestScrapeResult 测试抓取结果构造
func TestScrapeResult(t *testing.T) {
	t.Run("成功结果nil标题转为空切片", func(t *testing.T) {
		r := NewScrapeResult("https://x.test/public_profiles/u1", ProfileData{Name: "张三"})
		if r.Titles == nil {
			t.Error("Titles不应为nil")
		}
		if !r.OK() {
			t.Error("无错误的结果应为成功")
		}
	})

	t.Run("失败结果携带错误信息", func(t *testing.T) {
		r := NewErrorResult("https://x.test/public_profiles/u1", errors.New("超时"))
		if r.OK() {
			t.Error("带错误的结果不应为成功")
		}
		if r.Error != "超时" {
			t.Errorf("期望错误 '超时', 得到 '%s'", r.Error)
		}
		if r.Titles == nil || len(r.Titles) != 0 {
			t.Errorf("失败结果应保留空标题列表, 得到 %v", r.Titles)
		}
	})

	t.Run("成功结果序列化省略error字段", func(t *testing.T) {
		r := NewScrapeResult("https://x.test/public_profiles/u1", ProfileData{Name: "张三", Titles: []string{"徽章A"}})
		data, err := r.ToJSON()
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), `"error"`) {
			t.Error("成功结果不应序列化error字段")
		}
	})

	t.Run("titles字段序列化为数组而非null", func(t *testing.T) {
		r := NewScrapeResult("https://x.test/public_profiles/u1", ProfileData{})
		data, _ := json.Marshal(&r)
		if !strings.Contains(string(data), `"titles":[]`) {
			t.Errorf("期望空数组, 得到: %s", data)
		}
	})
}

// TestScrapeConfigValidate 测试抓取配置验证
func TestScrapeConfigValidate(t *testing.T) {
	valid := ScrapeConfig{
		MaxWorkers: 4,
		Timeout:    180,
		SettleWait: 2,
		Mode:       ModeDynamic,
	}

	t.Run("默认配置合法", func(t *testing.T) {
		c := valid
		if err := c.Validate(); err != nil {
			t.Errorf("合法配置被拒绝: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*ScrapeConfig)
	}{
		{"并发数为0", func(c *ScrapeConfig) { c.MaxWorkers = 0 }},
		{"并发数超上限", func(c *ScrapeConfig) { c.MaxWorkers = 33 }},
		{"超时为0", func(c *ScrapeConfig) { c.Timeout = 0 }},
		{"超时超上限", func(c *ScrapeConfig) { c.Timeout = 601 }},
		{"静置时间为负", func(c *ScrapeConfig) { c.SettleWait = -1 }},
		{"导航间隔为负", func(c *ScrapeConfig) { c.LaunchDelay = -1 }},
		{"起始下标为负", func(c *ScrapeConfig) { c.Start = -1 }},
		{"切片数量为负", func(c *ScrapeConfig) { c.Limit = -1 }},
		{"无效模式", func(c *ScrapeConfig) { c.Mode = "turbo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("非法配置应被拒绝")
			}
		})
	}
}

// TestCliHeadersParse 测试命令行头部解析
func TestCliHeadersParse(t *testing.T) {
	t.Run("正常解析", func(t *testing.T) {
		headers, err := CliHeaders([]string{"X-Token: abc", "User-Agent: Bot/1.0"}).Parse()
		if err != nil {
			t.Fatalf("解析失败: %v", err)
		}
		if headers.Get("X-Token") != "abc" {
			t.Errorf("期望 'abc', 得到 '%s'", headers.Get("X-Token"))
		}
	})

	t.Run("缺少冒号报错", func(t *testing.T) {
		if _, err := CliHeaders([]string{"无效头部"}).Parse(); err == nil {
			t.Error("缺少冒号应报错")
		}
	})

	t.Run("空名称报错", func(t *testing.T) {
		if _, err := CliHeaders([]string{": value"}).Parse(); err == nil {
			t.Error("空头部名称应报错")
		}
	})
}
