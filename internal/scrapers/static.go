package scrapers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"
)

// StaticScraper 静态抓取器(使用Colly)
// 不执行页面脚本,只能看到服务端返回的HTML;
// 目标站点通过shadow DOM渲染徽章时静态抓取得到空结果,
// 由上层回退到动态抓取
type StaticScraper struct {
	config         models.ScrapeConfig
	headerProvider models.HeaderProvider
}

// NewStaticScraper 创建静态抓取器
func NewStaticScraper(config models.ScrapeConfig, headerProvider models.HeaderProvider) *StaticScraper {
	return &StaticScraper{
		config:         config,
		headerProvider: headerProvider,
	}
}

// Scrape 静态抓取单个档案页
func (ss *StaticScraper) Scrape(profileURL string) models.ScrapeResult {
	httpTimeout := time.Duration(ss.config.Timeout) * time.Second

	collector := colly.NewCollector()
	collector.SetRequestTimeout(httpTimeout)
	// 跳过证书验证,允许访问自签名或主机名不匹配的HTTPS站点
	collector.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})

	var data models.ProfileData
	var scrapeErr error
	collected := false

	collector.OnRequest(func(r *colly.Request) {
		if ss.headerProvider == nil {
			return
		}
		headers, err := ss.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", profileURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		doc, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			scrapeErr = fmt.Errorf("解析HTML失败: %w", err)
			return
		}

		data = CollectFromHTML(doc)
		collected = true
	})

	collector.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("静态请求失败: %w", err)
	})

	if err := collector.Visit(profileURL); err != nil {
		return models.NewErrorResult(profileURL, fmt.Errorf("静态请求失败: %w", err))
	}
	collector.Wait()

	if scrapeErr != nil {
		return models.NewErrorResult(profileURL, scrapeErr)
	}
	if !collected {
		return models.NewErrorResult(profileURL, fmt.Errorf("静态请求无响应"))
	}

	utils.Debugf("静态抓取完成: %s (name=%q, titles=%d)", profileURL, data.Name, len(data.Titles))
	return models.NewScrapeResult(profileURL, data)
}

// decompressResponse 按Content-Encoding解压响应体
// 支持 br / gzip / deflate
func decompressResponse(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return io.ReadAll(reader)
	default:
		return nil, fmt.Errorf("不支持的压缩编码: %s", encoding)
	}
}
