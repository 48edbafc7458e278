package models

import "time"

// StatsBucket counts resources and downloads within one breakdown key.
type StatsBucket struct {
	Count     int   `json:"count"`
	Downloads int64 `json:"downloads"`
}

// StatsOverview aggregates the active catalogue.
type StatsOverview struct {
	TotalResources   int   `json:"totalResources"`
	TotalDownloads   int64 `json:"totalDownloads"`
	TotalSize        int64 `json:"totalSize"`
	AverageDownloads int64 `json:"averageDownloads"`
	AverageSize      int64 `json:"averageSize"`
}

// StatsBreakdown groups counters by branch, type and semester.
type StatsBreakdown struct {
	ByBranch   map[string]StatsBucket `json:"byBranch"`
	ByType     map[string]StatsBucket `json:"byType"`
	BySemester map[string]StatsBucket `json:"bySemester"`
}

// TopResource is a compact entry of a top-N list.
type TopResource struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Branch        string       `json:"branch"`
	Semester      int          `json:"semester"`
	ResourceType  ResourceType `json:"resourceType"`
	DownloadCount int64        `json:"downloadCount"`
	UploadedAt    time.Time    `json:"uploadedAt"`
}

// TopContent lists the most downloaded and most recent resources.
type TopContent struct {
	MostDownloaded []TopResource `json:"mostDownloaded"`
	RecentUploads  []TopResource `json:"recentUploads"`
}

// StorageUsage reports object store consumption.
type StorageUsage struct {
	Provider   string `json:"provider"`
	Objects    int64  `json:"objects"`
	BytesUsed  int64  `json:"bytesUsed"`
	QuotaBytes int64  `json:"quotaBytes,omitempty"`
}

// ResourceStats is the payload of the overview endpoint.
type ResourceStats struct {
	Overview    StatsOverview  `json:"overview"`
	Breakdown   StatsBreakdown `json:"breakdown"`
	TopContent  TopContent     `json:"topContent"`
	Storage     *StorageUsage  `json:"storage"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// BranchSummary is a catalogued branch with its active resource count.
type BranchSummary struct {
	Branch
	ResourceCount int `json:"resourceCount"`
}

// SubjectSummary aggregates resources sharing a subject name.
type SubjectSummary struct {
	Name          string         `json:"name"`
	ResourceCount int            `json:"resourceCount"`
	Branches      []string       `json:"branches"`
	Semesters     []int          `json:"semesters"`
	ResourceTypes []ResourceType `json:"resourceTypes"`
}

// SubjectFilter narrows subject aggregation.
type SubjectFilter struct {
	Branch   string `json:"branch,omitempty"`
	Semester int    `json:"semester,omitempty"`
}

// SubjectList is the payload of the subjects endpoint.
type SubjectList struct {
	Subjects      []SubjectSummary `json:"subjects"`
	Filters       SubjectFilter    `json:"filters"`
	TotalSubjects int              `json:"totalSubjects"`
}
