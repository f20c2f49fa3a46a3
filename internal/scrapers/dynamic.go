package scrapers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DynamicScraper 动态抓取器(使用Rod)
// 每次抓取启动独立的无头浏览器实例,抓取结束后必定释放,
// 实例之间不共享任何状态
type DynamicScraper struct {
	config         models.ScrapeConfig
	headerProvider models.HeaderProvider
}

// NewDynamicScraper 创建动态抓取器
func NewDynamicScraper(config models.ScrapeConfig, headerProvider models.HeaderProvider) *DynamicScraper {
	return &DynamicScraper{
		config:         config,
		headerProvider: headerProvider,
	}
}

// Scrape 动态抓取单个档案页
// 流程: 启动浏览器 -> 导航 -> 等待加载+网络空闲 -> 静置 -> 执行收集脚本 -> 关闭
// 任何失败(包括Rod内部panic)都转换为带Error的结果,绝不向上抛出
func (ds *DynamicScraper) Scrape(profileURL string) (result models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("动态抓取panic [%s]: %v", profileURL, r)
			result = models.NewErrorResult(profileURL, fmt.Errorf("动态抓取panic: %v", r))
		}
	}()

	timeout := time.Duration(ds.config.Timeout) * time.Second

	l := launcher.New().Headless(ds.config.Headless)
	l = l.Set("ignore-certificate-errors")
	controlURL, err := l.Launch()
	if err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("启动浏览器失败: %w", err))
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("连接浏览器失败: %w", err))
	}
	defer browser.MustClose()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("创建标签页失败: %w", err))
	}
	defer func() { _ = page.Close() }()

	// 硬超时: 之后的导航/等待/脚本执行共享同一个截止时间
	page = page.Timeout(timeout)

	if err := ds.applyHeaders(page); err != nil {
		utils.Warnf("应用HTTP头部失败 [%s]: %v", profileURL, err)
	}

	if err := page.Navigate(profileURL); err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("导航失败: %w", err))
	}
	if err := page.WaitLoad(); err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("等待页面加载失败: %w", err))
	}

	// 等待网络空闲(1秒内无新请求视为空闲)
	waitIdle := page.WaitRequestIdle(time.Second, nil, nil, nil)
	waitIdle()

	// 额外静置,等待延迟挂载的shadow DOM
	if ds.config.SettleWait > 0 {
		time.Sleep(time.Duration(ds.config.SettleWait) * time.Second)
	}

	res, err := page.Evaluate(&rod.EvalOptions{JS: badgeCollectScript})
	if err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("执行收集脚本失败: %w", err))
	}

	data := parseCollectResult(res.Value)
	utils.Debugf("动态抓取完成: %s (name=%q, titles=%d)", profileURL, data.Name, len(data.Titles))
	return models.NewScrapeResult(profileURL, data)
}

// applyHeaders 通过请求劫持应用自定义HTTP头部
func (ds *DynamicScraper) applyHeaders(page *rod.Page) error {
	if ds.headerProvider == nil {
		return nil
	}
	headers, err := ds.headerProvider.GetHeaders()
	if err != nil {
		return err
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		for name, values := range headers {
			if len(values) > 0 {
				ctx.Request.Req().Header.Set(name, values[0])
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}
