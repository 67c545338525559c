package rag

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PreviewMaxLength 预览最大字符数
const PreviewMaxLength = 150

// DefaultDocumentType 无法识别类型时使用的默认值
const DefaultDocumentType = "Document"

// extensionTypes 文件扩展名到文档类型的映射
var extensionTypes = map[string]string{
	".pdf":  "PDF Document",
	".docx": "Word Document",
	".txt":  "Text File",
	".csv":  "Data File",
	".xlsx": "Data File",
}

// Preview 取前 150 个字符，超过时在截断后的文本末尾追加 "..."
func Preview(excerpt string) string {
	runes := []rune(excerpt)
	if len(runes) <= PreviewMaxLength {
		return excerpt
	}
	return string(runes[:PreviewMaxLength]) + "..."
}

// Title 文件名；未知来源时使用 "Document N"（N 从 1 开始）
func Title(meta Metadata, index int) string {
	if meta.Source == "" {
		return fmt.Sprintf("Document %d", index+1)
	}
	parts := strings.Split(meta.Source, "/")
	return parts[len(parts)-1]
}

// DocumentType 显式类型优先，其次按扩展名推断，最后回退到 "Document"
func DocumentType(meta Metadata) string {
	if meta.Type != "" {
		return meta.Type
	}
	if meta.Source != "" {
		ext := strings.ToLower(filepath.Ext(meta.Source))
		if t, ok := extensionTypes[ext]; ok {
			return t
		}
	}
	return DefaultDocumentType
}

// Location 有页码时为 "Page N"，否则为 "Section"
func Location(meta Metadata) string {
	if meta.Page != nil {
		return fmt.Sprintf("Page %d", *meta.Page)
	}
	return "Section"
}

// NewSource 根据压缩后的候选文档生成来源记录
func NewSource(c Candidate, index int) Source {
	return Source{
		ID:       uuid.NewString(),
		Title:    Title(c.Metadata, index),
		Preview:  Preview(c.Content),
		Type:     DocumentType(c.Metadata),
		Location: Location(c.Metadata),
	}
}
