// Package store 负责抓取结果的持久化与合并
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
)

// ResultStore 以URL为唯一键的抓取结果存储
// 单写者: 批量抓取结束后一次性合并写回,运行期间无并发写入
type ResultStore struct {
	entries map[string]models.ScrapeResult
}

// New 创建空存储
func New() *ResultStore {
	return &ResultStore{
		entries: make(map[string]models.ScrapeResult),
	}
}

// Load 从文件加载已有存储
// 文件缺失或内容损坏时返回空存储并记录警告,不视为致命错误
func Load(path string) *ResultStore {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			utils.Warnf("读取已有结果文件失败 [%s]: %v, 使用空存储", path, err)
		}
		return s
	}

	var results []models.ScrapeResult
	if err := json.Unmarshal(data, &results); err != nil {
		utils.Warnf("解析已有结果文件失败 [%s]: %v, 使用空存储", path, err)
		return s
	}

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		s.entries[r.URL] = r
	}

	utils.Infof("💾 已加载 %d 条历史结果: %s", len(s.entries), path)
	return s
}

// Merge 将新批次结果合并进存储
// 按URL插入或覆盖,永不删除已有条目,返回插入/覆盖的条目数
func (s *ResultStore) Merge(incoming []models.ScrapeResult) int {
	merged := 0
	for _, r := range incoming {
		if r.URL == "" {
			continue
		}
		s.entries[r.URL] = r
		merged++
	}
	return merged
}

// Get 按URL查询条目
func (s *ResultStore) Get(profileURL string) (models.ScrapeResult, bool) {
	r, ok := s.entries[profileURL]
	return r, ok
}

// Len 返回条目数
func (s *ResultStore) Len() int {
	return len(s.entries)
}

// Entries 返回按URL字典序排序的条目列表
// 序列化顺序稳定,重复运行产生可比对的输出文件
func (s *ResultStore) Entries() []models.ScrapeResult {
	results := make([]models.ScrapeResult, 0, len(s.entries))
	for _, r := range s.entries {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].URL < results[j].URL
	})
	return results
}

// Save 将全部条目序列化写入文件
// 先写临时文件再重命名,避免写入中断损坏已有结果
// 写入失败对本次运行是致命错误,由调用方决定退出
func (s *ResultStore) Save(path string) error {
	return writeJSON(path, s.Entries())
}

// UpdateSingle 单条更新路径: 按URL替换持久化数组中的条目
// 保留文件中已有条目的原始顺序,未命中时追加到末尾
func UpdateSingle(path string, result models.ScrapeResult) error {
	var results []models.ScrapeResult

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &results); err != nil {
			utils.Warnf("解析已有结果文件失败 [%s]: %v, 按空数组处理", path, err)
			results = nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("读取结果文件失败: %w", err)
	}

	updated := false
	for i := range results {
		if results[i].URL == result.URL {
			results[i] = result
			updated = true
			break
		}
	}
	if !updated {
		results = append(results, result)
	}

	if err := writeJSON(path, results); err != nil {
		return err
	}

	if updated {
		utils.Infof("💾 已更新条目: %s", result.URL)
	} else {
		utils.Infof("💾 已追加新条目: %s", result.URL)
	}
	return nil
}

// writeJSON 原子写入JSON文件
// UTF-8输出,非ASCII字符不转义,两空格缩进
func writeJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".badge_harvest_*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	encoder := json.NewEncoder(tmp)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("序列化结果失败: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("替换结果文件失败: %w", err)
	}

	return nil
}
