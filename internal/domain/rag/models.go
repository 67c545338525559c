package rag

// Metadata 候选文档的来源元数据（由离线导入写入索引）
type Metadata struct {
	// Source 原始文件路径，可能为空
	Source string
	// Page 页码（PDF 等分页文档），nil 表示无页码
	Page *int
	// Type 显式声明的文档类型，可能为空
	Type string
}

// Candidate 索引返回的候选文档
type Candidate struct {
	Content  string
	Metadata Metadata
	Score    float32
}

// Source 返回给客户端的可追溯来源
type Source struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Preview  string `json:"preview"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Result 检索管线输出：拼接后的上下文与来源列表
type Result struct {
	Context string
	Sources []Source
	// Candidates 压缩后保留的文档（与 Sources 一一对应）
	Candidates []Candidate
}
