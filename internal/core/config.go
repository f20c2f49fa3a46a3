package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Scrape  models.ScrapeConfig `mapstructure:"scrape"`
	Input   InputConfig         `mapstructure:"input"`
	Output  OutputConfig        `mapstructure:"output"`
	Logging LoggingConfig       `mapstructure:"logging"`
}

// InputConfig 输入配置
type InputConfig struct {
	CSVPath string `mapstructure:"csv_path"` // 表格导出文件路径
}

// OutputConfig 输出配置
type OutputConfig struct {
	ResultsPath string `mapstructure:"results_path"` // 持久化结果文件
	ReportDir   string `mapstructure:"report_dir"`   // 运行报告目录
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
// 指定路径为空时按 ./configs -> . -> ~/.badgeharvest 顺序搜索,
// 文件不存在时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".badgeharvest"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 抓取配置默认值
	v.SetDefault("scrape.max_workers", 4)
	v.SetDefault("scrape.timeout", 180)
	v.SetDefault("scrape.settle_wait", 2)
	v.SetDefault("scrape.headless", true)
	v.SetDefault("scrape.mode", "dynamic")
	v.SetDefault("scrape.launch_delay", 500)
	v.SetDefault("scrape.safety_reserve_memory", 1024) // MB
	v.SetDefault("scrape.worker_memory_usage", 400)    // MB
	v.SetDefault("scrape.max_workers_limit", 16)

	// 输入/输出默认值
	v.SetDefault("input.csv_path", "gform.csv")
	v.SetDefault("output.results_path", "data/results.json")
	v.SetDefault("output.report_dir", "reports")

	// 日志默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}
