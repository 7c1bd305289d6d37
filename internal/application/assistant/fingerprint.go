package assistant

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint 由归一化查询和其上下文推导稳定缓存键。
// 仅大小写/空白不同的查询得到相同指纹；context_filter 或 locale 不同则指纹不同。
func Fingerprint(q Query) string {
	var sb strings.Builder
	sb.WriteString("q=")
	sb.WriteString(NormalizeText(q.Text))
	sb.WriteString("|f=")
	sb.WriteString(strings.ToLower(strings.TrimSpace(q.ContextFilter)))
	sb.WriteString("|l=")
	sb.WriteString(strings.ToLower(strings.TrimSpace(q.Locale)))
	sb.WriteString("|s=")
	sb.WriteString(strings.TrimSpace(q.Scope))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// NormalizeText 归一化查询文本：去首尾空白、小写、折叠连续空白。
func NormalizeText(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

func sortStrings(s []string) {
	sort.Strings(s)
}
