package storage

import "strings"

// 快照对象的键布局。
const (
	SnapshotPrefix    = "snapshots/site/"
	LatestSnapshotKey = SnapshotPrefix + "latest.html"
	LatestPDFKey      = SnapshotPrefix + "latest.pdf"
)

// SnapshotKey 返回一次发布的 HTML 对象键。
func SnapshotKey(id string) string {
	return SnapshotPrefix + id + ".html"
}

// SnapshotPDFKey 返回一次发布的 PDF 对象键。
func SnapshotPDFKey(id string) string {
	return SnapshotPrefix + id + ".pdf"
}

// IsLatestKey 判断是否为 latest 别名对象。
func IsLatestKey(key string) bool {
	return key == LatestSnapshotKey || key == LatestPDFKey
}

// SnapshotID 从对象键取出发布 ID，非快照键返回空串。
func SnapshotID(key string) string {
	if !strings.HasPrefix(key, SnapshotPrefix) || IsLatestKey(key) {
		return ""
	}
	name := strings.TrimPrefix(key, SnapshotPrefix)
	for _, ext := range []string{".html", ".pdf"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return ""
}
