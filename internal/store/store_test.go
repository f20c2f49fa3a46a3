package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
)

func sampleResult(url, name string, titles ...string) models.ScrapeResult {
	return models.NewScrapeResult(url, models.ProfileData{Name: name, Titles: titles})
}

// TestMerge 测试按URL合并
func TestMerge(t *testing.T) {
	t.Run("新条目插入", func(t *testing.T) {
		s := New()
		n := s.Merge([]models.ScrapeResult{
			sampleResult("https://x.test/public_profiles/u1", "张三", "徽章A"),
			sampleResult("https://x.test/public_profiles/u2", "李四"),
		})
		if n != 2 || s.Len() != 2 {
			t.Errorf("期望合并2条, 得到 n=%d len=%d", n, s.Len())
		}
	})

	t.Run("同URL覆盖不增加条目数", func(t *testing.T) {
		s := New()
		url := "https://x.test/public_profiles/u1"
		s.Merge([]models.ScrapeResult{sampleResult(url, "旧名字", "徽章A")})
		s.Merge([]models.ScrapeResult{sampleResult(url, "新名字", "徽章B")})

		if s.Len() != 1 {
			t.Fatalf("期望1条, 得到 %d", s.Len())
		}
		got, ok := s.Get(url)
		if !ok {
			t.Fatal("条目丢失")
		}
		if got.Name != "新名字" || len(got.Titles) != 1 || got.Titles[0] != "徽章B" {
			t.Errorf("覆盖后内容错误: %+v", got)
		}
	})

	t.Run("合并不删除未涉及的条目", func(t *testing.T) {
		s := New()
		s.Merge([]models.ScrapeResult{
			sampleResult("https://x.test/public_profiles/u1", "张三"),
		})
		s.Merge([]models.ScrapeResult{
			sampleResult("https://x.test/public_profiles/u2", "李四"),
		})
		if s.Len() != 2 {
			t.Errorf("历史条目不应丢失, len=%d", s.Len())
		}
	})

	t.Run("空URL条目被跳过", func(t *testing.T) {
		s := New()
		n := s.Merge([]models.ScrapeResult{{URL: "", Name: "无效"}})
		if n != 0 || s.Len() != 0 {
			t.Errorf("空URL应被跳过, n=%d len=%d", n, s.Len())
		}
	})
}

// TestSaveLoad 测试持久化往返
func TestSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "data", "results.json")

	s := New()
	s.Merge([]models.ScrapeResult{
		sampleResult("https://x.test/public_profiles/b", "乙", "徽章B"),
		sampleResult("https://x.test/public_profiles/a", "甲", "徽章A", "徽章C"),
		models.NewErrorResult("https://x.test/public_profiles/c", os.ErrDeadlineExceeded),
	})

	if err := s.Save(path); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	t.Run("输出按URL字典序排序", func(t *testing.T) {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var results []models.ScrapeResult
		if err := json.Unmarshal(data, &results); err != nil {
			t.Fatalf("输出不是合法JSON: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("期望3条, 得到 %d", len(results))
		}
		for i := 1; i < len(results); i++ {
			if results[i-1].URL >= results[i].URL {
				t.Errorf("输出未按URL排序: %s >= %s", results[i-1].URL, results[i].URL)
			}
		}
	})

	t.Run("非ASCII字符不转义", func(t *testing.T) {
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "徽章A") {
			t.Error("中文字符不应转义为\\u序列")
		}
	})

	t.Run("重新加载得到相同条目", func(t *testing.T) {
		loaded := Load(path)
		if loaded.Len() != 3 {
			t.Fatalf("期望3条, 得到 %d", loaded.Len())
		}
		got, ok := loaded.Get("https://x.test/public_profiles/a")
		if !ok || got.Name != "甲" || len(got.Titles) != 2 {
			t.Errorf("加载后内容错误: %+v", got)
		}
	})

	t.Run("临时文件不残留", func(t *testing.T) {
		entries, _ := os.ReadDir(filepath.Dir(path))
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".badge_harvest_") {
				t.Errorf("残留临时文件: %s", e.Name())
			}
		}
	})
}

// TestLoad_Degradation 测试加载的容错行为
func TestLoad_Degradation(t *testing.T) {
	t.Run("文件不存在返回空存储", func(t *testing.T) {
		s := Load("/nonexistent/results.json")
		if s.Len() != 0 {
			t.Errorf("期望空存储, len=%d", s.Len())
		}
	})

	t.Run("损坏的JSON返回空存储", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		s := Load(path)
		if s.Len() != 0 {
			t.Errorf("损坏文件应按空存储处理, len=%d", s.Len())
		}
	})

	t.Run("空URL条目在加载时被跳过", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "partial.json")
		content := `[{"url":"","name":"坏"},{"url":"https://x.test/public_profiles/ok","name":"好","titles":[]}]`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		s := Load(path)
		if s.Len() != 1 {
			t.Errorf("期望1条, 得到 %d", s.Len())
		}
	})
}

// TestUpdateSingle 测试单条更新路径
func TestUpdateSingle(t *testing.T) {
	t.Run("按URL原地替换保留顺序", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "results.json")
		content := `[
  {"url":"https://x.test/public_profiles/u1","name":"一","titles":[]},
  {"url":"https://x.test/public_profiles/u2","name":"二","titles":[]},
  {"url":"https://x.test/public_profiles/u3","name":"三","titles":[]}
]`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		updated := sampleResult("https://x.test/public_profiles/u2", "二号新版", "新徽章")
		if err := UpdateSingle(path, updated); err != nil {
			t.Fatalf("更新失败: %v", err)
		}

		data, _ := os.ReadFile(path)
		var results []models.ScrapeResult
		if err := json.Unmarshal(data, &results); err != nil {
			t.Fatal(err)
		}
		if len(results) != 3 {
			t.Fatalf("条目数不应变化, 得到 %d", len(results))
		}
		wantOrder := []string{
			"https://x.test/public_profiles/u1",
			"https://x.test/public_profiles/u2",
			"https://x.test/public_profiles/u3",
		}
		for i, want := range wantOrder {
			if results[i].URL != want {
				t.Errorf("第%d条顺序错误: 期望 %s, 得到 %s", i, want, results[i].URL)
			}
		}
		if results[1].Name != "二号新版" {
			t.Errorf("替换未生效: %+v", results[1])
		}
	})

	t.Run("未命中时追加到末尾", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "results.json")
		content := `[{"url":"https://x.test/public_profiles/u1","name":"一","titles":[]}]`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		if err := UpdateSingle(path, sampleResult("https://x.test/public_profiles/u9", "九")); err != nil {
			t.Fatalf("更新失败: %v", err)
		}

		data, _ := os.ReadFile(path)
		var results []models.ScrapeResult
		if err := json.Unmarshal(data, &results); err != nil {
			t.Fatal(err)
		}
		if len(results) != 2 || results[1].URL != "https://x.test/public_profiles/u9" {
			t.Errorf("追加失败: %+v", results)
		}
	})

	t.Run("文件不存在时创建新文件", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "fresh.json")

		if err := UpdateSingle(path, sampleResult("https://x.test/public_profiles/u1", "一")); err != nil {
			t.Fatalf("更新失败: %v", err)
		}

		s := Load(path)
		if s.Len() != 1 {
			t.Errorf("期望1条, 得到 %d", s.Len())
		}
	})
}
