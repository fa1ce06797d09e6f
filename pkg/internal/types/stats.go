package types

// TypeStat 单一类型的数量与字节数.
type TypeStat struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// StorageStatsResponse 用量统计响应.
// UsedPercent 由服务端计算，配额为 0 时恒为 0，避免除零.
type StorageStatsResponse struct {
	UsedBytes      int64               `json:"used_bytes"`
	TotalBytes     int64               `json:"total_bytes"`
	AvailableBytes int64               `json:"available_bytes"`
	UsedPercent    float64             `json:"used_percent"`
	FileCount      int                 `json:"file_count"`
	FolderCount    int                 `json:"folder_count"`
	ByType         map[string]TypeStat `json:"by_type"`
}
