package core

import (
	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/scrapers"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
)

// Scraper 单个档案页的抓取接口
type Scraper interface {
	// Scrape 抓取单个档案URL, 失败时在结果中携带错误而不是返回error
	Scrape(profileURL string) models.ScrapeResult
}

// ProfileScraper 按模式调度静态/动态抓取器
type ProfileScraper struct {
	mode    models.ScrapeMode
	static  *scrapers.StaticScraper
	dynamic *scrapers.DynamicScraper
}

// NewProfileScraper 创建档案抓取器
func NewProfileScraper(config models.ScrapeConfig, headerProvider models.HeaderProvider) *ProfileScraper {
	return &ProfileScraper{
		mode:    config.Mode,
		static:  scrapers.NewStaticScraper(config, headerProvider),
		dynamic: scrapers.NewDynamicScraper(config, headerProvider),
	}
}

// Scrape 抓取单个档案页
// all模式先尝试静态请求, 拿不到徽章数据再回退到无头浏览器
func (ps *ProfileScraper) Scrape(profileURL string) models.ScrapeResult {
	switch ps.mode {
	case models.ModeStatic:
		return ps.static.Scrape(profileURL)
	case models.ModeDynamic:
		return ps.dynamic.Scrape(profileURL)
	default:
		result := ps.static.Scrape(profileURL)
		if result.OK() && len(result.Titles) > 0 {
			return result
		}
		utils.Debugf("静态抓取未获得徽章数据, 回退到动态抓取: %s", profileURL)
		return ps.dynamic.Scrape(profileURL)
	}
}
