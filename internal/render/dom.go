package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// attr 是构造节点时的属性对。
type attr struct {
	key, val string
}

func a(key, val string) attr { return attr{key: key, val: val} }

// el 创建元素节点，children 可以是 *html.Node 或 string（文本）。
func el(tag string, attrs []attr, children ...any) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, at := range attrs {
		if at.val == "" && at.key != "alt" {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: at.key, Val: at.val})
	}
	appendAll(n, children...)
	return n
}

// attrs 是 []attr 的简写。
func attrs(list ...attr) []attr { return list }

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children ...any) {
	for _, c := range children {
		switch v := c.(type) {
		case nil:
		case *html.Node:
			if v != nil {
				parent.AppendChild(v)
			}
		case string:
			parent.AppendChild(textNode(v))
		case []*html.Node:
			for _, n := range v {
				parent.AppendChild(n)
			}
		}
	}
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// setText 用单个文本节点替换 n 的全部子节点。
func setText(n *html.Node, s string) {
	clearChildren(n)
	n.AppendChild(textNode(s))
}

func getAttr(n *html.Node, key string) string {
	for _, at := range n.Attr {
		if at.Key == key {
			return at.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, at := range n.Attr {
		if at.Key != key {
			out = append(out, at)
		}
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.TrimSpace(getAttr(n, "class")+" "+class))
}

// removeClassPrefix 删除所有以 prefix 开头的 class。
func removeClassPrefix(n *html.Node, prefix string) {
	fields := strings.Fields(getAttr(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if !strings.HasPrefix(c, prefix) {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

// findByID 深度优先查找 id 属性匹配的元素。
func findByID(root *html.Node, id string) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode && getAttr(root, "id") == id {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findByClass 返回 root 子树中第一个含 class 的元素。
func findByClass(root *html.Node, class string) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode && hasClass(root, class) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// allByClass 返回 root 子树中所有含 class 的元素。
func allByClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// elementChildren 返回 n 的直接元素子节点。
func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func countNodes(n *html.Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += countNodes(c)
	}
	return total
}

// attachedTo 判断 n 是否仍挂在 root 之下；动画任务据此判断目标是否还在。
func attachedTo(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// safeURL 只放行常见的安全协议，其余返回空串。
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// "//host" 与 "/\host" 会被浏览器当作其它站点。
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	if strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "/") {
		return raw
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "data:image/") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return raw
	case "":
		return raw
	}
	return ""
}

// isImageRef 判断 logo 之类的字段是图片地址还是纯文字。
func isImageRef(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(lower, "data:image/") {
		return true
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "/") {
		return false
	}
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
