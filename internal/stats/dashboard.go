package stats

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/RecoveryAshes/BadgeHarvest/internal/store"
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
)

// Totals 结果库的汇总统计
type Totals struct {
	Total       int // 总条目数
	WithName    int // 成功抓到显示名称的条目数
	Failed      int // 带错误信息的条目数
	TotalTitles int // 徽章标题总数(按条目累加)
}

// BadgeCount 单个徽章标题的出现次数
type BadgeCount struct {
	Title string
	Count int
}

// Compute 统计结果列表
func Compute(results []models.ScrapeResult) Totals {
	var t Totals
	t.Total = len(results)
	for _, r := range results {
		if !r.OK() {
			t.Failed++
			continue
		}
		if r.Name != "" {
			t.WithName++
		}
		t.TotalTitles += len(r.Titles)
	}
	return t
}

// TopBadges 统计出现次数最多的前n个徽章标题
// 次数相同时按标题字典序排列,保证输出稳定
func TopBadges(results []models.ScrapeResult, n int) []BadgeCount {
	counts := make(map[string]int)
	for _, r := range results {
		for _, title := range r.Titles {
			counts[title]++
		}
	}

	badges := make([]BadgeCount, 0, len(counts))
	for title, count := range counts {
		badges = append(badges, BadgeCount{Title: title, Count: count})
	}
	sort.Slice(badges, func(i, j int) bool {
		if badges[i].Count != badges[j].Count {
			return badges[i].Count > badges[j].Count
		}
		return badges[i].Title < badges[j].Title
	})

	if n > 0 && len(badges) > n {
		badges = badges[:n]
	}
	return badges
}

// RenderDashboard 将结果图表渲染到输出流
// 成功/失败占比饼图 + 热门徽章柱状图
func RenderDashboard(w io.Writer, results []models.ScrapeResult) error {
	totals := Compute(results)

	// 成功/失败占比
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "抓取结果分布"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	pie.AddSeries("档案", []opts.PieData{
		{Name: "成功", Value: totals.Total - totals.Failed},
		{Name: "失败", Value: totals.Failed},
	})

	// 热门徽章
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "热门徽章 Top 15"}))

	var barX []string
	var barY []opts.BarData
	for _, b := range TopBadges(results, 15) {
		barX = append(barX, b.Title)
		barY = append(barY, opts.BarData{Value: b.Count})
	}
	bar.SetXAxis(barX).AddSeries("获得次数", barY)

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("渲染饼图失败: %w", err)
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("渲染柱状图失败: %w", err)
	}
	return nil
}

// StartServer 启动统计面板HTTP服务
// 每次请求重新加载结果文件,抓取运行后刷新页面即可看到最新数据
func StartServer(resultsPath string, port int) error {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		results := store.Load(resultsPath).Entries()
		if err := RenderDashboard(w, results); err != nil {
			utils.Errorf("渲染统计面板失败: %v", err)
		}
	})

	utils.Infof("📊 统计面板已启动: http://localhost:%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
}
