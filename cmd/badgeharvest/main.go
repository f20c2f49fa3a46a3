package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/BadgeHarvest/internal/core"
	"github.com/RecoveryAshes/BadgeHarvest/internal/extractor"
	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/stats"
	"github.com/RecoveryAshes/BadgeHarvest/internal/store"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 抓取参数
	csvPath     string
	urlFile     string
	outPath     string
	maxWorkers  int
	timeout     int
	settleWait  int
	mode        string
	headless    bool
	startIndex  int
	limitCount  int
	launchDelay int

	// stats子命令参数
	serveDashboard bool
	dashboardPort  int
)

var rootCmd = &cobra.Command{
	Use:   "badgeharvest",
	Short: "公开档案徽章批量采集工具",
	Long: `BadgeHarvest - 公开档案徽章批量采集工具

从表格导出的CSV中提取公开档案URL,并发抓取每个档案页的
显示名称和徽章标题(支持Shadow DOM),结果按URL合并到本地JSON:
  • 静态和动态(无头浏览器)抓取模式
  • URL自动去重和规范化
  • 结果增量合并,历史数据不丢失
  • 按内存/CPU负载自动收窄并发
  • 自定义HTTP请求头

使用示例:
  # 从CSV提取URL并抓取
  badgeharvest --csv gform.csv

  # 只抓取第10条开始的20个档案
  badgeharvest --csv gform.csv --start 10 --limit 20

  # 重抓单个档案
  badgeharvest update https://example.com/public_profiles/abc123

  # 查看统计面板
  badgeharvest stats --serve

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		scrapeConfig := buildScrapeConfig(cmd, appConfig)
		if err := ValidateFlags(&scrapeConfig); err != nil {
			return err
		}

		inputPath := csvPath
		if inputPath == "" {
			inputPath = appConfig.Input.CSVPath
		}
		resultsPath := outPath
		if resultsPath == "" {
			resultsPath = appConfig.Output.ResultsPath
		}

		// 提取档案URL
		var urls []string
		if urlFile != "" {
			inputPath = urlFile
			if err := ValidateInputFile(inputPath); err != nil {
				return err
			}
			urls, err = utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}
		} else {
			if err := ValidateInputFile(inputPath); err != nil {
				return err
			}
			urls, err = extractor.ExtractFromCSV(inputPath)
			if err != nil {
				return fmt.Errorf("解析CSV文件失败: %w", err)
			}
		}

		if len(urls) == 0 {
			return fmt.Errorf("没有提取到任何档案URL (输入: %s)", inputPath)
		}
		utils.Infof("📥 共提取 %d 个档案URL", len(urls))

		// 执行批量抓取
		startedAt := time.Now()
		scraper := core.NewProfileScraper(scrapeConfig, headerManager)
		batch := core.NewBatchScraper(scrapeConfig, scraper)
		results, workers := batch.Run(urls)

		// 合并历史结果并持久化
		resultStore := store.Load(resultsPath)
		resultStore.Merge(results)
		if err := resultStore.Save(resultsPath); err != nil {
			return fmt.Errorf("保存结果失败: %w", err)
		}

		summary := buildSummary(inputPath, urls, results, resultStore.Len(), workers, scrapeConfig.Mode, startedAt)
		reporter := utils.NewReporter(appConfig.Output.ReportDir)
		if err := reporter.SaveRunSummary(summary); err != nil {
			// 报告失败不影响抓取结果
			utils.Warnf("保存运行报告失败: %v", err)
		}

		core.PrintSummary(summary)
		utils.Info("✨ 批量抓取任务完成!")
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <档案URL>",
	Short: "重新抓取单个档案并更新结果文件",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		profileURL := models.NormalizeProfileURL(args[0])
		if err := models.ValidateProfileURL(profileURL); err != nil {
			return err
		}

		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		scrapeConfig := buildScrapeConfig(cmd, appConfig)
		if err := ValidateFlags(&scrapeConfig); err != nil {
			return err
		}

		resultsPath := outPath
		if resultsPath == "" {
			resultsPath = appConfig.Output.ResultsPath
		}

		utils.Infof("🚀 重新抓取档案: %s", profileURL)
		scraper := core.NewProfileScraper(scrapeConfig, headerManager)
		result := scraper.Scrape(profileURL)

		if result.OK() {
			utils.Infof("✅ %s -> %s (%d个徽章)", result.URL, result.Name, len(result.Titles))
		} else {
			utils.Errorf("❌ %s -> %s", result.URL, result.Error)
		}

		if err := store.UpdateSingle(resultsPath, result); err != nil {
			return fmt.Errorf("更新结果文件失败: %w", err)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "显示结果统计, 可选启动图表面板",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		resultsPath := outPath
		if resultsPath == "" {
			resultsPath = appConfig.Output.ResultsPath
		}

		results := store.Load(resultsPath).Entries()
		totals := stats.Compute(results)

		fmt.Println("==================================================")
		fmt.Println("📊 结果统计")
		fmt.Println("==================================================")
		fmt.Printf("总档案数: %d\n", totals.Total)
		fmt.Printf("✅ 有显示名称: %d\n", totals.WithName)
		fmt.Printf("❌ 抓取失败: %d\n", totals.Failed)
		fmt.Printf("🏅 徽章总数: %d\n", totals.TotalTitles)
		fmt.Println("==================================================")

		top := stats.TopBadges(results, 10)
		if len(top) > 0 {
			fmt.Println("热门徽章 Top 10:")
			for i, b := range top {
				fmt.Printf("  %2d. %s (%d)\n", i+1, b.Title, b.Count)
			}
		}

		if serveDashboard {
			return stats.StartServer(resultsPath, dashboardPort)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BadgeHarvest %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// buildScrapeConfig 合并配置文件和命令行参数
// 只有用户显式指定的标志才覆盖配置文件
func buildScrapeConfig(cmd *cobra.Command, appConfig *core.Config) models.ScrapeConfig {
	config := appConfig.Scrape

	if cmd.Flags().Changed("workers") {
		config.MaxWorkers = maxWorkers
	}
	if cmd.Flags().Changed("timeout") {
		config.Timeout = timeout
	}
	if cmd.Flags().Changed("settle") {
		config.SettleWait = settleWait
	}
	if cmd.Flags().Changed("launch-delay") {
		config.LaunchDelay = launchDelay
	}
	if cmd.Flags().Changed("headless") {
		config.Headless = headless
	}
	if cmd.Flags().Changed("mode") {
		config.Mode = models.ScrapeMode(mode)
	}
	config.Start = startIndex
	config.Limit = limitCount

	return config
}

// buildSummary 汇总单次运行的统计信息
func buildSummary(inputPath string, urls []string, results []models.ScrapeResult, storeEntries, workers int, mode models.ScrapeMode, startedAt time.Time) *models.RunSummary {
	summary := &models.RunSummary{
		RunID:      uuid.New().String(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		InputPath:  inputPath,
		TotalURLs:  len(urls),
		SlicedURLs: len(results),
		Workers:    workers,
		Mode:       mode,
	}
	summary.Duration = summary.FinishedAt.Sub(startedAt).Seconds()

	for _, r := range results {
		if r.OK() {
			summary.SuccessCount++
			summary.TitleCount += len(r.Titles)
		} else {
			summary.FailCount++
		}
	}
	summary.StoreEntries = storeEntries

	return summary
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 抓取参数
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "CSV输入文件路径 (默认读取配置 input.csv_path)")
	rootCmd.PersistentFlags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径 (每行一个,优先于 --csv)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "结果JSON文件路径 (默认读取配置 output.results_path)")
	rootCmd.PersistentFlags().IntVarP(&maxWorkers, "workers", "w", 4, "并发worker数 (1-32)")
	rootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 180, "单页抓取超时(秒)")
	rootCmd.PersistentFlags().IntVar(&settleWait, "settle", 2, "页面加载后静置时间(秒)")
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "dynamic", "抓取模式 (all|static|dynamic)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.PersistentFlags().IntVar(&launchDelay, "launch-delay", 500, "相邻抓取任务最小间隔(毫秒),0禁用")
	rootCmd.Flags().IntVar(&startIndex, "start", 0, "从第N个URL开始抓取")
	rootCmd.Flags().IntVar(&limitCount, "limit", 0, "最多抓取N个URL,0表示全部")

	// stats参数
	statsCmd.Flags().BoolVar(&serveDashboard, "serve", false, "启动HTTP统计面板")
	statsCmd.Flags().IntVar(&dashboardPort, "port", 8080, "统计面板端口")

	// 添加子命令
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
