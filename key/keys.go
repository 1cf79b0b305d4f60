// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// OCS Catalog Endpoint - these keys select which remote catalog the crawler talks to.
const (
	OCSBaseURL  = "ocs.base_url"
	OCSCategory = "ocs.category"
	OCSPageSize = "ocs.page_size"
)

// Crawler Pipeline - these keys tune pacing, retries and the output tree.
const (
	CrawlerOutputDir    = "crawler.output_dir"
	CrawlerRequestDelay = "crawler.request_delay"
	CrawlerMaxRetries   = "crawler.max_retries"
	CrawlerRetryDelay   = "crawler.retry_delay"
	CrawlerExtract      = "crawler.extract"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern terminal output behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
