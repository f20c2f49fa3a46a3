package models

import (
	"encoding/json"
	"time"
)

// RunSummary 单次批量抓取的运行报告
type RunSummary struct {
	// 运行标识
	RunID string `json:"run_id"` // UUID

	// 时间信息
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   float64   `json:"duration"` // 秒

	// 输入信息
	InputPath  string `json:"input_path"`  // CSV或URL列表文件
	TotalURLs  int    `json:"total_urls"`  // 提取到的URL总数
	SlicedURLs int    `json:"sliced_urls"` // 切片后实际处理的URL数

	// 统计
	SuccessCount int `json:"success_count"` // 成功抓取数
	FailCount    int `json:"fail_count"`    // 失败数
	TitleCount   int `json:"title_count"`   // 收集到的徽章标题总数(去重后)
	StoreEntries int `json:"store_entries"` // 合并后持久化存储条目数

	// 配置快照
	Workers int        `json:"workers"` // 实际使用的worker数
	Mode    ScrapeMode `json:"mode"`
}

// ToJSON 序列化为JSON
func (s *RunSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
