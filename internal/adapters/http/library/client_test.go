package library_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
	"github.com/jackskhakis/gameyfin/pkg/logger"
	"github.com/jackskhakis/gameyfin/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

// backendCallCounts reads the global registry and returns, for op, the call
// counter per outcome and the number of latency observations.
func backendCallCounts(op string) (map[string]float64, uint64) {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)

	calls := map[string]float64{}
	var observations uint64
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			if labelValue(m, "operation") != op {
				continue
			}
			switch fam.GetName() {
			case "gameyfin_web_backend_calls_total":
				calls[labelValue(m, "outcome")] = m.GetCounter().GetValue()
			case "gameyfin_web_backend_call_duration_milliseconds":
				observations = m.GetHistogram().GetSampleCount()
			}
		}
	}
	return calls, observations
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

// fakeBackend records requests and answers with canned responses per path.
type fakeBackend struct {
	mu       sync.Mutex
	requests []*http.Request
	status   map[string]int
	body     map[string]string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	status, ok := f.status[r.URL.Path]
	body := f.body[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeBackend) set(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = status
	f.body[path] = body
}

func (f *fakeBackend) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.status, path)
}

func (f *fakeBackend) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		status: map[string]int{
			"/library/scan":            http.StatusOK,
			"/library/download-images": http.StatusOK,
			"/library/files":           http.StatusOK,
		},
		body: map[string]string{
			"/library/scan":            "",
			"/library/download-images": `{"queued":3}`,
			"/library/files":           `["a.rom","b.rom"]`,
		},
	}
}

func TestClientOperations(t *testing.T) {
	Convey("Given a client pointed at a backend", t, func() {
		backend := newBackend()
		srv := httptest.NewServer(backend)
		defer srv.Close()

		client, err := library.New(library.WithBaseURL(srv.URL))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When listing files", func() {
			files, err := client.ListFiles(ctx)

			Convey("Then the backend sequence is returned in order, unmodified", func() {
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{"a.rom", "b.rom"})
			})

			Convey("And the request is a GET on /library/files", func() {
				req := backend.last()
				So(req.Method, ShouldEqual, http.MethodGet)
				So(req.URL.Path, ShouldEqual, "/library/files")
				So(req.Header.Get(library.HeaderRequestID), ShouldNotBeEmpty)
				So(req.Header.Get("Accept"), ShouldEqual, "application/json")
			})
		})

		Convey("When the backend lists duplicates and unsorted paths", func() {
			backend.set("/library/files", http.StatusOK, `["z/b.iso","a.rom","a.rom"]`)
			files, err := client.ListFiles(ctx)

			Convey("Then nothing is sorted or deduplicated", func() {
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{"z/b.iso", "a.rom", "a.rom"})
			})
		})

		Convey("When the backend lists nothing", func() {
			backend.set("/library/files", http.StatusOK, `null`)
			files, err := client.ListFiles(ctx)

			Convey("Then an empty, non-nil slice is returned", func() {
				So(err, ShouldBeNil)
				So(files, ShouldNotBeNil)
				So(files, ShouldBeEmpty)
			})
		})

		Convey("When the file listing is not a string array", func() {
			backend.set("/library/files", http.StatusOK, `{"files":1}`)
			callsBefore, observedBefore := backendCallCounts(library.OpListFiles)
			files, err := client.ListFiles(ctx)
			callsAfter, observedAfter := backendCallCounts(library.OpListFiles)

			Convey("Then a decode error is returned", func() {
				So(files, ShouldBeNil)
				So(errors.Is(err, library.ErrDecode), ShouldBeTrue)
			})

			Convey("And the call is counted once, as a decode error", func() {
				So(callsAfter[metrics.OutcomeDecodeError]-callsBefore[metrics.OutcomeDecodeError], ShouldEqual, float64(1))
				So(callsAfter[metrics.OutcomeSuccess]-callsBefore[metrics.OutcomeSuccess], ShouldEqual, float64(0))
				So(observedAfter-observedBefore, ShouldEqual, uint64(1))
			})
		})

		Convey("When triggering a scan", func() {
			resp, err := client.ScanLibrary(ctx)

			Convey("Then the raw envelope is returned", func() {
				So(err, ShouldBeNil)
				So(resp.OK(), ShouldBeTrue)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.RequestID, ShouldEqual, backend.last().Header.Get(library.HeaderRequestID))
				So(backend.last().URL.Path, ShouldEqual, "/library/scan")
			})
		})

		Convey("When triggering an image download", func() {
			resp, err := client.DownloadImages(ctx)

			Convey("Then the body is passed through untouched", func() {
				So(err, ShouldBeNil)
				So(string(resp.Body), ShouldEqual, `{"queued":3}`)
				So(resp.Header.Get("Content-Type"), ShouldEqual, "application/json")
				So(backend.last().URL.Path, ShouldEqual, "/library/download-images")
			})
		})

		Convey("When the scan endpoint answers 500", func() {
			backend.set("/library/scan", http.StatusInternalServerError, "boom")

			var (
				resp *library.Response
				err  error
			)
			So(func() { resp, err = client.ScanLibrary(ctx) }, ShouldNotPanic)

			Convey("Then a status error is returned alongside the envelope", func() {
				So(errors.Is(err, library.ErrUnexpectedStatus), ShouldBeTrue)
				var se *library.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.StatusCode, ShouldEqual, http.StatusInternalServerError)
				So(se.Operation, ShouldEqual, library.OpScan)
				So(string(se.Body), ShouldEqual, "boom")
				So(err.Error(), ShouldContainSubstring, "500 Internal Server Error")

				So(resp, ShouldNotBeNil)
				So(resp.OK(), ShouldBeFalse)
				So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the files endpoint answers 404", func() {
			backend.remove("/library/files")
			files, err := client.ListFiles(ctx)

			Convey("Then the failure is propagated without a listing", func() {
				So(files, ShouldBeNil)
				So(errors.Is(err, library.ErrUnexpectedStatus), ShouldBeTrue)
			})
		})
	})
}

func TestClientConfiguration(t *testing.T) {
	Convey("Given client options", t, func() {
		Convey("When no base URL is set", func() {
			_, err := library.New()
			So(errors.Is(err, library.ErrConfig), ShouldBeTrue)
		})

		Convey("When the base URL is relative", func() {
			_, err := library.New(library.WithBaseURL("/backend"))
			So(errors.Is(err, library.ErrConfig), ShouldBeTrue)
		})

		Convey("When an API path is configured", func() {
			client, err := library.New(library.WithBaseURL("http://backend:8080/"), library.WithAPIPath("/api/v1/library"))
			So(err, ShouldBeNil)
			So(client.Endpoint("files"), ShouldEqual, "http://backend:8080/api/v1/library/files")
		})

		Convey("When defaults are used", func() {
			client, err := library.New(library.WithBaseURL("http://backend:8080"))
			So(err, ShouldBeNil)
			So(client.Endpoint("scan"), ShouldEqual, "http://backend:8080/library/scan")
		})
	})
}

// countingTransport counts round trips before delegating.
type countingTransport struct {
	calls atomic.Int64
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

func TestClientCustomHTTPClient(t *testing.T) {
	Convey("Given a client built with its own http.Client", t, func() {
		srv := httptest.NewServer(newBackend())
		defer srv.Close()

		transport := &countingTransport{next: http.DefaultTransport}
		client, err := library.New(
			library.WithBaseURL(srv.URL),
			library.WithHTTPClient(&http.Client{Transport: transport}),
			library.WithTimeout(time.Nanosecond),
		)
		So(err, ShouldBeNil)

		Convey("When listing files", func() {
			files, err := client.ListFiles(context.Background())

			Convey("Then the supplied client carries the call and the timeout option is ignored", func() {
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{"a.rom", "b.rom"})
				So(transport.calls.Load(), ShouldEqual, int64(1))
			})
		})
	})
}

func TestClientFailures(t *testing.T) {
	Convey("Given a client", t, func() {
		Convey("When the backend is unreachable", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()

			client, err := library.New(library.WithBaseURL(url))
			So(err, ShouldBeNil)
			resp, err := client.ScanLibrary(context.Background())

			Convey("Then a transport error is returned", func() {
				So(resp, ShouldBeNil)
				So(errors.Is(err, library.ErrTransport), ShouldBeTrue)
				So(errors.Is(err, library.ErrUnexpectedStatus), ShouldBeFalse)
			})
		})

		Convey("When the context is cancelled", func() {
			srv := httptest.NewServer(newBackend())
			defer srv.Close()
			client, err := library.New(library.WithBaseURL(srv.URL))
			So(err, ShouldBeNil)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = client.DownloadImages(ctx)

			Convey("Then the cancellation cause is preserved", func() {
				So(errors.Is(err, library.ErrTransport), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the backend is slower than the timeout", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer srv.Close()
			defer close(release)

			client, err := library.New(library.WithBaseURL(srv.URL), library.WithTimeout(50*time.Millisecond))
			So(err, ShouldBeNil)
			_, err = client.ListFiles(context.Background())

			Convey("Then the call fails without retrying", func() {
				So(errors.Is(err, library.ErrTransport), ShouldBeTrue)
			})
		})
	})
}

func TestClientWireLog(t *testing.T) {
	Convey("Given a client with wire logging at debug level", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
		So(logger.SetLevelString("debug"), ShouldBeNil)
		defer func() { _ = logger.SetLevelString("info") }()

		srv := httptest.NewServer(newBackend())
		defer srv.Close()

		client, err := library.New(
			library.WithBaseURL(srv.URL),
			library.WithLogger(logger.Named("library")),
			library.WithWireLog(true),
			library.WithUserAgent("test-agent"),
		)
		So(err, ShouldBeNil)

		_, err = client.ListFiles(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the request and response are dumped", func() {
			out := buf.String()
			So(out, ShouldContainSubstring, "library request")
			So(out, ShouldContainSubstring, "GET /library/files HTTP/1.1")
			So(out, ShouldContainSubstring, "test-agent")
			So(out, ShouldContainSubstring, "library response")
			So(out, ShouldContainSubstring, "a.rom")
		})
	})
}
