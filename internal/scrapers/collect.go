package scrapers

import (
	"strings"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"github.com/ysmood/gson"
)

// 目标站点的结构契约: 名称为h1标题,徽章标题为span
const (
	displayNameClass = "ql-display-small"
	badgeTitleClass  = "ql-title-medium"
)

// badgeCollectScript 在页面脚本上下文中收集档案名称和徽章标题
// 显式栈前序遍历组合树: 访问元素 -> 其shadow子树 -> light子节点,
// 嵌套深度不限;首个命中的名称获胜,标题按遍历顺序收集(不去重)
// 单个节点的属性访问异常被局部吞掉,遍历继续
var badgeCollectScript = `() => {
	var result = { name: '', titles: [] };
	var stack = [];
	if (document.documentElement) {
		stack.push(document.documentElement);
	}
	while (stack.length > 0) {
		var node = stack.pop();
		if (!node) {
			continue;
		}
		try {
			var tag = node.tagName ? String(node.tagName).toLowerCase() : '';
			var cls = (typeof node.className === 'string') ? node.className : '';
			var classes = cls.split(/\s+/);
			if (tag === 'h1' && !result.name && classes.indexOf('ql-display-small') !== -1) {
				result.name = (node.innerText || node.textContent || '').trim();
			}
			if (tag === 'span' && classes.indexOf('ql-title-medium') !== -1) {
				var t = (node.innerText || node.textContent || '').trim();
				if (t) {
					result.titles.push(t);
				}
			}
			var i;
			// light子节点先入栈,shadow子节点后入栈,
			// 栈后进先出,shadow子树先于light子节点弹出
			if (node.children) {
				for (i = node.children.length - 1; i >= 0; i--) {
					stack.push(node.children[i]);
				}
			}
			if (node.shadowRoot && node.shadowRoot.children) {
				for (i = node.shadowRoot.children.length - 1; i >= 0; i--) {
					stack.push(node.shadowRoot.children[i]);
				}
			}
		} catch (e) {
			// 单节点异常不中断遍历
		}
	}
	return result;
}`

// DedupeTitles 去重徽章标题,保留首次出现顺序
// 幂等: 对已去重的列表再次调用产生相同输出
func DedupeTitles(titles []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// parseCollectResult 将页面脚本返回的JSON转换为ProfileData
// 字段缺失或为null时退回空默认值(gson对nil值的Str()会输出"<nil>")
func parseCollectResult(val gson.JSON) models.ProfileData {
	data := models.ProfileData{Titles: []string{}}

	if name := val.Get("name"); !name.Nil() {
		data.Name = strings.TrimSpace(name.Str())
	}
	for _, item := range val.Get("titles").Arr() {
		if item.Nil() {
			continue
		}
		if t := strings.TrimSpace(item.Str()); t != "" {
			data.Titles = append(data.Titles, t)
		}
	}
	data.Titles = DedupeTitles(data.Titles)
	return data
}
