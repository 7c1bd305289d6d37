package entity

import "time"

// Document 知识库文档元数据
// 正文内容用于切分和向量化，检索时只回传摘要片段。
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Department string    `json:"department"`
	Locale     string    `json:"locale"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
