package crawler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/ocs"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// catalogServer fakes the two OCS endpoints plus a download mirror.
type catalogServer struct {
	*httptest.Server
	downloads int
}

func newCatalogServer(t *testing.T, detailLinks func(baseURL string) string) *catalogServer {
	t.Helper()

	cs := &catalogServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/content/data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<ocs>
 <meta><status>ok</status><totalitems>1</totalitems></meta>
 <data>
  <content>
   <id>42</id>
   <name>Cool Wall/paper</name>
   <version>1.0</version>
   <personid>alice</personid>
  </content>
 </data>
</ocs>`)
	})

	mux.HandleFunc("/content/data/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<ocs>
 <meta><status>ok</status><totalitems>1</totalitems></meta>
 <data>
  <content>
   <id>42</id>
   <name>Cool Wall/paper</name>
   %s
  </content>
 </data>
</ocs>`, detailLinks(cs.URL))
	})

	serveArchive := func(w http.ResponseWriter, r *http.Request) {
		cs.downloads++
		_, _ = w.Write(tarGzBytes(map[string]string{
			"contents/ui/main.qml": "import QtQuick",
		}))
	}
	mux.HandleFunc("/files/cool.tar.gz", serveArchive)
	mux.HandleFunc("/files/get", serveArchive)

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func newTestCrawler(srv *catalogServer, out *bytes.Buffer) *Crawler {
	c := New(Options{
		Client:       ocs.New(srv.URL, 100),
		Category:     419,
		OutputDir:    "out",
		RequestDelay: 0,
		MaxRetries:   3,
		RetryDelay:   0,
		Extract:      true,
		Out:          out,
	})
	c.downloader.sleep = func(time.Duration) {}
	return c
}

func TestRun(t *testing.T) {
	Convey("Run", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		var out bytes.Buffer

		Convey("Downloads and extracts a single-link catalog", func() {
			srv := newCatalogServer(t, func(base string) string {
				return fmt.Sprintf(
					"<downloadlink1>%s/files/cool.tar.gz</downloadlink1><downloadname1>cool.tar.gz</downloadname1>",
					base,
				)
			})

			stats, err := newTestCrawler(srv, &out).Run()

			So(err, ShouldBeNil)
			So(stats, ShouldResemble, Stats{Downloaded: 1, Skipped: 0, Failed: 0})
			So(lo.Must(fs.Exists("out/Cool_Wall_paper/cool.tar.gz")), ShouldBeTrue)
			qml := lo.Must(fs.ReadFile("out/Cool_Wall_paper/src/contents/ui/main.qml"))
			So(string(qml), ShouldEqual, "import QtQuick")
			So(out.String(), ShouldContainSubstring, "[1/1] Cool Wall/paper (ID: 42)")
		})

		Convey("A second run over the same catalog skips everything", func() {
			srv := newCatalogServer(t, func(base string) string {
				return fmt.Sprintf("<downloadlink1>%s/files/cool.tar.gz</downloadlink1>", base)
			})

			first := lo.Must(newTestCrawler(srv, &out).Run())
			second := lo.Must(newTestCrawler(srv, &out).Run())

			So(first.Downloaded, ShouldEqual, 1)
			So(second, ShouldResemble, Stats{Downloaded: 0, Skipped: 1, Failed: 0})
			So(srv.downloads, ShouldEqual, 1)
		})

		Convey("Links with no archive name and no download hint are ignored entirely", func() {
			srv := newCatalogServer(t, func(base string) string {
				return fmt.Sprintf("<downloadlink1>%s/homepage</downloadlink1><downloadname1>homepage</downloadname1>", base)
			})

			stats, err := newTestCrawler(srv, &out).Run()

			So(err, ShouldBeNil)
			So(stats, ShouldResemble, Stats{Downloaded: 0, Skipped: 0, Failed: 0})
			So(out.String(), ShouldContainSubstring, "skipping non-source file")
		})

		Convey("Indirect download URLs get a synthesized archive name", func() {
			srv := newCatalogServer(t, func(base string) string {
				// The mirror hides the filename behind a download endpoint.
				return fmt.Sprintf("<downloadlink1>%s/files/get?download=1</downloadlink1>", base)
			})

			stats, err := newTestCrawler(srv, &out).Run()

			So(err, ShouldBeNil)
			So(stats.Downloaded, ShouldEqual, 1)
			So(lo.Must(fs.Exists("out/Cool_Wall_paper/Cool_Wall_paper.tar.gz")), ShouldBeTrue)
		})

		Convey("An item without download links counts as failed", func() {
			srv := newCatalogServer(t, func(base string) string {
				return ""
			})

			stats, err := newTestCrawler(srv, &out).Run()

			So(err, ShouldBeNil)
			So(stats, ShouldResemble, Stats{Downloaded: 0, Skipped: 0, Failed: 1})
		})

		Convey("A failing listing aborts the whole run", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<ocs><meta><status>failed</status><message>nope</message></meta><data></data></ocs>`)
			}))
			defer srv.Close()

			c := New(Options{Client: ocs.New(srv.URL, 100), Category: 419, OutputDir: "out", MaxRetries: 1, Out: &out})
			_, err := c.Run()

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `api status "failed"`)
		})

		Convey("Zero-byte leftovers are downloaded again", func() {
			srv := newCatalogServer(t, func(base string) string {
				return fmt.Sprintf("<downloadlink1>%s/files/cool.tar.gz</downloadlink1>", base)
			})
			lo.Must0(fs.MkdirAll("out/Cool_Wall_paper", 0755))
			lo.Must0(fs.WriteFile("out/Cool_Wall_paper/cool.tar.gz", nil, 0644))

			stats, err := newTestCrawler(srv, &out).Run()

			So(err, ShouldBeNil)
			So(stats.Downloaded, ShouldEqual, 1)
			So(srv.downloads, ShouldEqual, 1)
		})

		Convey("Pacing sleeps before every remote call", func() {
			srv := newCatalogServer(t, func(base string) string {
				return fmt.Sprintf("<downloadlink1>%s/files/cool.tar.gz</downloadlink1>", base)
			})

			c := newTestCrawler(srv, &out)
			c.opts.RequestDelay = 3 * time.Second
			var pauses []time.Duration
			c.sleep = func(d time.Duration) { pauses = append(pauses, d) }

			lo.Must(c.Run())

			// One pause before the detail call, one before the download.
			So(pauses, ShouldResemble, []time.Duration{3 * time.Second, 3 * time.Second})
		})
	})
}

func TestTargetFilename(t *testing.T) {
	Convey("targetFilename", t, func() {
		Convey("Prefers the URL path basename", func() {
			dl := ocs.Download{URL: "https://dl.example/files/cool.tar.gz", Name: "display.tar.gz"}
			So(targetFilename(dl), ShouldEqual, "cool.tar.gz")
		})

		Convey("A trailing-slash path has no basename and falls back to the declared name", func() {
			dl := ocs.Download{URL: "https://dl.example/files/", Name: "display.tar.gz"}
			So(targetFilename(dl), ShouldEqual, "display.tar.gz")
		})

		Convey("An empty path falls back to the declared name", func() {
			dl := ocs.Download{URL: "https://dl.example", Name: "display.tar.gz"}
			So(targetFilename(dl), ShouldEqual, "display.tar.gz")
		})
	})
}
