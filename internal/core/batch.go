package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/scrapers"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
	"golang.org/x/time/rate"
)

// BatchScraper 批量抓取调度器
// 固定数量的worker从任务通道消费URL,结果汇总到单个收集协程
type BatchScraper struct {
	config  models.ScrapeConfig
	scraper Scraper

	// limiter 限制相邻抓取任务的启动节奏, LaunchDelay为0时不限速
	limiter *rate.Limiter

	monitor *scrapers.ResourceMonitor
}

// NewBatchScraper 创建批量抓取调度器
func NewBatchScraper(config models.ScrapeConfig, scraper Scraper) *BatchScraper {
	var limiter *rate.Limiter
	if config.LaunchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(config.LaunchDelay)*time.Millisecond), 1)
	}

	monitor := scrapers.NewResourceMonitor(scrapers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(config.SafetyReserveMemory) * 1024 * 1024,
		WorkerMemoryUsage:   int64(config.WorkerMemoryUsage) * 1024 * 1024,
		MaxWorkersLimit:     config.MaxWorkersLimit,
	})

	return &BatchScraper{
		config:  config,
		scraper: scraper,
		limiter: limiter,
		monitor: monitor,
	}
}

// SliceURLs 按start/limit切片URL列表
// start越界返回空切片, limit为0表示取到末尾
func SliceURLs(urls []string, start, limit int) []string {
	if start < 0 {
		start = 0
	}
	if start >= len(urls) {
		return []string{}
	}
	end := len(urls)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return urls[start:end]
}

// Run 并发抓取URL列表,返回全部结果(成功与失败各占一条)和实际使用的worker数
func (bs *BatchScraper) Run(urls []string) ([]models.ScrapeResult, int) {
	tasks := SliceURLs(urls, bs.config.Start, bs.config.Limit)
	if len(tasks) == 0 {
		utils.Warn("切片后没有需要抓取的URL")
		return []models.ScrapeResult{}, 0
	}

	workers := bs.effectiveWorkers(len(tasks))
	utils.Infof("🚀 开始批量抓取: %d个档案, %d个worker", len(tasks), workers)

	taskCh := make(chan string, len(tasks))
	resultCh := make(chan models.ScrapeResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for profileURL := range taskCh {
				resultCh <- bs.scrapeOne(workerID, profileURL)
			}
		}(i + 1)
	}

	for _, u := range tasks {
		taskCh <- u
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	bar := utils.NewProgressBar(len(tasks), "📥 抓取档案")
	results := make([]models.ScrapeResult, 0, len(tasks))
	for result := range resultCh {
		if result.OK() {
			utils.Infof("✅ %s -> %s (%d个徽章)", result.URL, result.Name, len(result.Titles))
		} else {
			utils.Errorf("❌ %s -> %s", result.URL, truncateError(result.Error))
		}
		results = append(results, result)
		_ = bar.Add(1)
	}
	fmt.Println()

	return results, workers
}

// scrapeOne 抓取单个URL, worker内的panic转换为失败结果
func (bs *BatchScraper) scrapeOne(workerID int, profileURL string) (result models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("worker-%d 抓取panic: %v", workerID, r)
			result = models.NewErrorResult(profileURL, fmt.Errorf("抓取panic: %v", r))
		}
	}()

	if bs.limiter != nil {
		_ = bs.limiter.Wait(context.Background())
	}

	utils.Debugf("worker-%d 开始抓取: %s", workerID, profileURL)
	return bs.scraper.Scrape(profileURL)
}

// effectiveWorkers 根据系统资源和任务量计算实际并发数
func (bs *BatchScraper) effectiveWorkers(taskCount int) int {
	workers := bs.monitor.ClampWorkers(bs.config.MaxWorkers)
	if workers > taskCount {
		workers = taskCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// truncateError 截断过长的错误信息,避免刷屏
func truncateError(msg string) string {
	const maxLen = 80
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen] + "..."
}

// PrintSummary 打印批量抓取摘要
func PrintSummary(summary *models.RunSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量抓取摘要")
	utils.Info("==================================================")
	utils.Infof("RunID: %s", summary.RunID)
	utils.Infof("输入文件: %s", summary.InputPath)
	utils.Infof("提取URL数: %d (本次处理 %d)", summary.TotalURLs, summary.SlicedURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("🏅 徽章总数: %d", summary.TitleCount)
	utils.Infof("💾 结果库条目: %d", summary.StoreEntries)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.Duration)
	utils.Info("==================================================")
}
