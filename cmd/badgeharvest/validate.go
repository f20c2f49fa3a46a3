package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
)

// ValidateFlags 验证合并后的抓取配置
func ValidateFlags(config *models.ScrapeConfig) error {
	return config.Validate()
}

// ValidateInputFile 验证输入文件路径
// CSV缺失不是致命错误(提取阶段会给出空列表), 但显式指定的路径必须是普通文件
func ValidateInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("输入文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("无法访问输入文件: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("输入路径是目录而不是文件: %s", path)
	}
	return nil
}
