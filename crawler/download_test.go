package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func newRecordingDownloader(maxRetries int, retryDelay time.Duration) (*Downloader, *[]time.Duration) {
	d := NewDownloader(maxRetries, retryDelay)
	waits := &[]time.Duration{}
	d.sleep = func(wait time.Duration) {
		*waits = append(*waits, wait)
	}
	return d, waits
}

func TestDownload(t *testing.T) {
	Convey("Download", t, func() {
		filesystem.SetMemMapFs()

		Convey("Streams the body to the destination path", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "archive-bytes")
			}))
			defer srv.Close()

			d, _ := newRecordingDownloader(3, time.Second)
			written, err := d.Download(srv.URL+"/cool.tar.gz", "out/plugin/cool.tar.gz")

			So(err, ShouldBeNil)
			So(written, ShouldEqual, int64(len("archive-bytes")))
			content := lo.Must(filesystem.API().ReadFile("out/plugin/cool.tar.gz"))
			So(string(content), ShouldEqual, "archive-bytes")
		})

		Convey("A persistent 429 exhausts every attempt with escalating waits", func() {
			var attempts int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer srv.Close()

			retryDelay := 10 * time.Second
			d, waits := newRecordingDownloader(3, retryDelay)
			_, err := d.Download(srv.URL+"/x.tar.gz", "out/x.tar.gz")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "rate limited")
			So(attempts, ShouldEqual, 3)
			// The wait is honored after every rate-limited attempt, final included.
			So(*waits, ShouldResemble, []time.Duration{
				1 * retryDelay, 2 * retryDelay, 3 * retryDelay,
			})
		})

		Convey("Server errors retry with backoff between attempts only", func() {
			var attempts int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			retryDelay := 10 * time.Second
			d, waits := newRecordingDownloader(3, retryDelay)
			_, err := d.Download(srv.URL+"/x.tar.gz", "out/x.tar.gz")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unexpected status")
			So(attempts, ShouldEqual, 3)
			So(*waits, ShouldResemble, []time.Duration{
				1 * retryDelay, 2 * retryDelay,
			})
		})

		Convey("A truncated body leaves no partial file behind", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "1000")
				_, _ = w.Write([]byte("short"))
			}))
			defer srv.Close()

			d, _ := newRecordingDownloader(2, time.Second)
			_, err := d.Download(srv.URL+"/x.tar.gz", "out/x.tar.gz")

			So(err, ShouldNotBeNil)
			exists := lo.Must(filesystem.API().Exists("out/x.tar.gz"))
			So(exists, ShouldBeFalse)
		})

		Convey("A malformed URL fails immediately without retries", func() {
			d, waits := newRecordingDownloader(3, time.Second)
			_, err := d.Download("http://bad url with spaces", "out/x.tar.gz")

			So(err, ShouldNotBeNil)
			So(*waits, ShouldBeEmpty)
		})
	})
}
