package config

import "time"

const (
	// MaxFolderTitleLength fits the VARCHAR(255) title column.
	MaxFolderTitleLength = 255

	// MaxBatchSize bounds batch delete and reorder requests.
	MaxBatchSize = 500

	// MaxImportItems bounds a single import; classification prompts grow
	// with every item.
	MaxImportItems = 50

	// MaxImportContentLength bounds one imported question, in runes.
	MaxImportContentLength = 20000

	// ImportTitleLength is how many runes of the content become the title
	// when neither the item nor the classifier supplies one.
	ImportTitleLength = 25

	// DefaultSubject files imports that name no subject.
	DefaultSubject = "未分类"

	// DefaultImportTitle is used when the content is blank after trimming.
	DefaultImportTitle = "新导入题目"

	// MaxProfileNameLength bounds the display name, in runes.
	MaxProfileNameLength = 100

	// MaxAnalysisBytes bounds a cached analysis payload.
	MaxAnalysisBytes = 256 << 10
)

const (
	// DefaultCallTimeout bounds each remote call made by the tree store.
	DefaultCallTimeout = 15 * time.Second

	// DefaultHTTPTimeout is the client-side ceiling for one HTTP exchange.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRefetchAttempts bounds the reconciliation refetch.
	DefaultRefetchAttempts = 4

	// ClassifyTimeout bounds one classification call.
	ClassifyTimeout = 60 * time.Second

	// MaxLogFiles is how many server-*.log files SetupLogFile keeps.
	MaxLogFiles = 10
)
