package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ScrapeMode 抓取模式
type ScrapeMode string

const (
	ModeAll     ScrapeMode = "all"     // 静态优先,失败回退动态
	ModeStatic  ScrapeMode = "static"  // 仅静态抓取
	ModeDynamic ScrapeMode = "dynamic" // 仅动态抓取(无头浏览器)
)

// ProfileURLSegment 识别公开档案URL的路径片段
const ProfileURLSegment = "/public_profiles/"

// ProfileData 从页面提取的原始档案数据
// Name: 档案显示名称(可能为空)
// Titles: 徽章标题列表,遍历顺序,未去重
type ProfileData struct {
	Name   string   `json:"name"`
	Titles []string `json:"titles"`
}

// ScrapeResult 单个档案的抓取结果
// Error非空时表示抓取失败,Name/Titles保留空默认值
type ScrapeResult struct {
	URL    string   `json:"url"`
	Name   string   `json:"name"`
	Titles []string `json:"titles"`
	Error  string   `json:"error,omitempty"`
}

// NewScrapeResult 创建成功结果
func NewScrapeResult(profileURL string, data ProfileData) ScrapeResult {
	titles := data.Titles
	if titles == nil {
		titles = []string{}
	}
	return ScrapeResult{
		URL:    profileURL,
		Name:   data.Name,
		Titles: titles,
	}
}

// NewErrorResult 创建失败结果
func NewErrorResult(profileURL string, err error) ScrapeResult {
	return ScrapeResult{
		URL:    profileURL,
		Name:   "",
		Titles: []string{},
		Error:  err.Error(),
	}
}

// OK 判断结果是否成功
func (r *ScrapeResult) OK() bool {
	return r.Error == ""
}

// ToJSON 序列化为JSON
func (r *ScrapeResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// ValidateProfileURL 验证公开档案URL
// 在通用URL验证基础上,要求路径包含public_profiles片段
func ValidateProfileURL(urlStr string) error {
	if err := ValidateURL(urlStr); err != nil {
		return err
	}
	if !strings.Contains(urlStr, ProfileURLSegment) {
		return fmt.Errorf("不是公开档案URL (缺少%s): %s", ProfileURLSegment, urlStr)
	}
	return nil
}

// NormalizeProfileURL 规范化档案URL: 截断查询串和片段
func NormalizeProfileURL(urlStr string) string {
	if idx := strings.IndexAny(urlStr, "?#"); idx != -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// ScrapeConfig 抓取配置
type ScrapeConfig struct {
	MaxWorkers  int        `json:"max_workers" mapstructure:"max_workers"`   // 并发worker数 (默认:4)
	Timeout     int        `json:"timeout" mapstructure:"timeout"`           // 单页抓取超时(秒) (默认:180)
	SettleWait  int        `json:"settle_wait" mapstructure:"settle_wait"`   // 页面加载后静置时间(秒),等待shadow DOM挂载 (默认:2)
	Headless    bool       `json:"headless" mapstructure:"headless"`         // 无头模式 (默认:true)
	Mode        ScrapeMode `json:"mode" mapstructure:"mode"`                 // 抓取模式 (默认:dynamic)
	LaunchDelay int        `json:"launch_delay" mapstructure:"launch_delay"` // 相邻页面导航最小间隔(毫秒),0禁用 (默认:500)
	Start       int        `json:"start" mapstructure:"start"`               // 批量切片起始下标
	Limit       int        `json:"limit" mapstructure:"limit"`               // 批量切片数量,0表示到末尾
	// 资源限制
	SafetyReserveMemory int `json:"safety_reserve_memory" mapstructure:"safety_reserve_memory"` // 安全保留内存(MB)
	WorkerMemoryUsage   int `json:"worker_memory_usage" mapstructure:"worker_memory_usage"`     // 单worker预估内存(MB)
	MaxWorkersLimit     int `json:"max_workers_limit" mapstructure:"max_workers_limit"`         // 绝对最大worker数
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if c.MaxWorkers < 1 || c.MaxWorkers > 32 {
		return fmt.Errorf("并发数必须在1-32之间")
	}
	if c.Timeout < 1 || c.Timeout > 600 {
		return fmt.Errorf("超时必须在1-600秒之间")
	}
	if c.SettleWait < 0 || c.SettleWait > 60 {
		return fmt.Errorf("静置时间必须在0-60秒之间")
	}
	if c.LaunchDelay < 0 {
		return fmt.Errorf("导航间隔不能为负数")
	}
	if c.Start < 0 {
		return fmt.Errorf("切片起始下标不能为负数")
	}
	if c.Limit < 0 {
		return fmt.Errorf("切片数量不能为负数")
	}
	switch c.Mode {
	case ModeAll, ModeStatic, ModeDynamic:
	default:
		return fmt.Errorf("无效的抓取模式: %s", c.Mode)
	}
	return nil
}
