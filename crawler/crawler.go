package crawler

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/icon"
	"github.com/kabegame/kabegame/log"
	"github.com/kabegame/kabegame/ocs"
	"github.com/kabegame/kabegame/util"
)

// Options configures a crawl run. Every tunable is explicit; the crawler
// itself never consults global configuration.
type Options struct {
	Client    *ocs.Client
	Category  int
	OutputDir string

	// RequestDelay is the unconditional pause before every detail and
	// download request, independent of retry backoff.
	RequestDelay time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	// Extract unpacks each downloaded archive into a src/ subdirectory.
	Extract bool

	// Limit caps the number of items processed; zero means no cap.
	Limit int

	// Out receives progress output. Defaults to os.Stdout.
	Out io.Writer
}

// Stats aggregates the counters of one crawl run.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Crawler walks a catalog category item by item, strictly sequentially.
type Crawler struct {
	opts       Options
	downloader *Downloader

	// sleep implements the inter-request pacing; swappable in tests.
	sleep func(time.Duration)
}

// New returns a Crawler for the given options.
func New(opts Options) *Crawler {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &Crawler{
		opts:       opts,
		downloader: NewDownloader(opts.MaxRetries, opts.RetryDelay),
		sleep:      time.Sleep,
	}
}

// Run executes the full pipeline: list the category, then fetch details,
// download and extract each item in turn. A listing failure is fatal; any
// later failure is counted against its item and the run continues.
func (c *Crawler) Run() (Stats, error) {
	var stats Stats

	items, err := c.opts.Client.ListContent(c.opts.Category)
	if err != nil {
		return stats, fmt.Errorf("list category %d: %w", c.opts.Category, err)
	}

	if c.opts.Limit > 0 && len(items) > c.opts.Limit {
		items = items[:c.opts.Limit]
	}

	c.printf("Found %s\n", util.Quantify(len(items), "plugin", "plugins"))

	for i, item := range items {
		c.printf("\n[%d/%d] %s (ID: %s)\n", i+1, len(items), item.Name, item.ID)
		c.crawlItem(item, &stats)
	}

	c.summarize(stats)
	return stats, nil
}

func (c *Crawler) crawlItem(item ocs.Summary, stats *Stats) {
	dirName := util.SanitizeFilename(item.Name)
	itemDir := filepath.Join(c.opts.OutputDir, dirName)

	c.pause()
	detail, err := c.opts.Client.ContentByID(item.ID)
	if err != nil {
		stats.Failed++
		log.Errorf("details of %s: %v", item.ID, err)
		c.printf("  %s failed to fetch details: %v\n", icon.Get(icon.Fail), err)
		return
	}

	content, ok := detail.Get()
	if !ok || len(content.Downloads) == 0 {
		stats.Failed++
		c.printf("  %s no downloadable files\n", icon.Get(icon.Fail))
		return
	}

	for _, dl := range content.Downloads {
		c.crawlLink(dl, dirName, itemDir, stats)
	}
}

func (c *Crawler) crawlLink(dl ocs.Download, dirName, itemDir string, stats *Stats) {
	filename := targetFilename(dl)

	if !IsArchiveName(filename) {
		// Links without a recognizable archive name are usually indirect
		// download endpoints; only URLs that say so are worth a guess.
		if !containsDownload(dl.URL) {
			c.printf("  %s skipping non-source file: %s\n", icon.Get(icon.Skip), filename)
			log.Debugf("link %s has no archive suffix, skipped", dl.URL)
			return
		}
		filename = dirName + ".tar.gz"
	}

	dest := filepath.Join(itemDir, filename)

	if stat, err := filesystem.API().Stat(dest); err == nil {
		if stat.Size() > 0 {
			stats.Skipped++
			c.printf("  %s already exists, skipping: %s\n", icon.Get(icon.Skip), dest)
			return
		}
		// A zero-byte leftover is a failed prior run, not a completed download.
		log.Warnf("re-downloading empty file %s", dest)
	}

	c.printf("  %s downloading %s\n", icon.Get(icon.Download), truncateURL(dl.URL))
	c.pause()

	written, err := c.downloader.Download(dl.URL, dest)
	if err != nil {
		stats.Failed++
		log.Errorf("download %s: %v", dl.URL, err)
		c.printf("  %s download failed: %v\n", icon.Get(icon.Fail), err)
		return
	}

	stats.Downloaded++
	c.printf("  %s saved %s (%s)\n", icon.Get(icon.Success), dest, humanize.Bytes(uint64(written)))

	if c.opts.Extract {
		c.extract(dest, itemDir)
	}
}

// extract unpacks the archive into the item's src directory unless one
// already exists from a previous run.
func (c *Crawler) extract(archivePath, itemDir string) {
	srcDir := filepath.Join(itemDir, "src")

	if exists, _ := filesystem.API().DirExists(srcDir); exists {
		return
	}

	switch err := Extract(archivePath, srcDir); {
	case err == nil:
		c.printf("  %s extracted to %s\n", icon.Get(icon.Extract), srcDir)
	case errors.Is(err, ErrUnsupportedArchive):
		c.printf("  %s not extracting %s: %v\n", icon.Get(icon.Skip), filepath.Base(archivePath), err)
	default:
		// The archive is kept either way.
		log.Errorf("extract %s: %v", archivePath, err)
		c.printf("  %s extraction failed: %v\n", icon.Get(icon.Fail), err)
	}
}

func (c *Crawler) summarize(stats Stats) {
	c.printf("\nDone!\n")
	c.printf("  downloaded: %d\n", stats.Downloaded)
	c.printf("  skipped:    %d (already present)\n", stats.Skipped)
	c.printf("  failed:     %d\n", stats.Failed)
	c.printf("  output:     %s\n", c.opts.OutputDir)

	dirs, err := filesystem.API().ReadDir(c.opts.OutputDir)
	if err != nil {
		return
	}

	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}

		entries, err := filesystem.API().ReadDir(filepath.Join(c.opts.OutputDir, dir.Name()))
		if err != nil {
			continue
		}

		files := 0
		for _, entry := range entries {
			if !entry.IsDir() {
				files++
			}
		}

		c.printf("  - %s: %s\n", dir.Name(), util.Quantify(files, "file", "files"))
	}
}

func (c *Crawler) pause() {
	if c.opts.RequestDelay > 0 {
		c.sleep(c.opts.RequestDelay)
	}
}

func (c *Crawler) printf(format string, args ...any) {
	fmt.Fprintf(c.opts.Out, format, args...)
}

// targetFilename derives the destination filename of a download link,
// preferring the URL's path basename over the declared display name.
// A path ending in a slash has no basename and falls back to the name.
func targetFilename(dl ocs.Download) string {
	if u, err := url.Parse(dl.URL); err == nil && !strings.HasSuffix(u.Path, "/") {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return dl.Name
}

func containsDownload(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "download")
}

// truncateURL shortens very long mirror URLs for progress output.
func truncateURL(u string) string {
	const max = 80
	if len(u) <= max {
		return u
	}
	return u[:max] + "..."
}
