package scrapers

import (
	"strings"

	"github.com/RecoveryAshes/BadgeHarvest/internal/models"
	"golang.org/x/net/html"
)

// CollectFromHTML 在静态HTML树上执行与浏览器端相同的收集算法
// 显式栈前序遍历;静态HTML不含shadow树,组合树退化为DOM树
// 首个命中的h1名称获胜,span标题按文档顺序收集后去重
func CollectFromHTML(doc *html.Node) models.ProfileData {
	data := models.ProfileData{Titles: []string{}}

	stack := []*html.Node{doc}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}

		if node.Type == html.ElementNode {
			switch node.Data {
			case "h1":
				if data.Name == "" && hasClass(node, displayNameClass) {
					data.Name = strings.TrimSpace(textContent(node))
				}
			case "span":
				if hasClass(node, badgeTitleClass) {
					if t := strings.TrimSpace(textContent(node)); t != "" {
						data.Titles = append(data.Titles, t)
					}
				}
			}
		}

		// 子节点逆序入栈,保证按文档顺序弹出
		children := make([]*html.Node, 0)
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	data.Titles = DedupeTitles(data.Titles)
	return data
}

// hasClass 检查元素class属性是否包含指定类名
func hasClass(node *html.Node, class string) bool {
	for _, attr := range node.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// textContent 拼接元素子树内的全部文本节点
func textContent(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return sb.String()
}
