// Package extractor 从表格导出文件中提取公开档案URL
package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
)

// profileURLPattern 匹配单元格内嵌的档案URL
var profileURLPattern = regexp.MustCompile(`https?://[^\s"'>]+/public_profiles/[^\s"'>]+`)

// ExtractFromCSV 扫描CSV文件,提取去重后的档案URL
// 文件不存在时返回空列表(非致命,由调用方决定退出码)
// 返回顺序: 按URL字典序排序,保证相同输入产生相同输出
func ExtractFromCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			utils.Warnf("CSV文件不存在: %s", path)
			return []string{}, nil
		}
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // 容忍列数不一致的行
	reader.LazyQuotes = true

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// 单行解析失败不中断整体扫描
			utils.Warnf("跳过无法解析的CSV行: %v", err)
			continue
		}
		rows = append(rows, record)
	}

	urls := ExtractFromRows(rows)
	utils.Infof("从 %s 提取了 %d 个档案URL", path, len(urls))
	return urls, nil
}

// ExtractFromRows 从表格行中提取档案URL
// 每个单元格独立扫描: 优先正则匹配内嵌URL,
// 否则当单元格本身以http开头且包含public_profiles片段时按整体接受
// 所有命中结果截断查询串和片段后去重,按字典序返回
func ExtractFromRows(rows [][]string) []string {
	seen := make(map[string]bool)

	for _, row := range rows {
		for _, cell := range row {
			if cell == "" {
				continue
			}

			if m := profileURLPattern.FindString(cell); m != "" {
				seen[models.NormalizeProfileURL(m)] = true
				continue
			}

			trimmed := strings.TrimSpace(cell)
			if strings.Contains(trimmed, models.ProfileURLSegment) && strings.HasPrefix(trimmed, "http") {
				seen[models.NormalizeProfileURL(trimmed)] = true
			}
		}
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
