package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/okian/winequality/internal/adapters/http/api"
	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/domain/quality"
	"github.com/okian/winequality/internal/presenter"
	"github.com/okian/winequality/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/language"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubDeps runs the real collector and a canned classifier outcome.
type stubDeps struct {
	collector *features.Collector
	fail      error
	label     int64
	proba     []float64
	model     *classifier.Info
	analyzed  atomic.Int64
	lastSeen  atomic.Value
}

func newStubDeps(policy features.Policy) *stubDeps {
	return &stubDeps{
		collector: features.NewCollector(features.WithPolicy(policy)),
		label:     1,
		proba:     []float64{0.2, 0.8},
		model: &classifier.Info{
			Format:    classifier.FormatXGBoost,
			Path:      "/models/wine_quality_model.json",
			SHA256:    strings.Repeat("0f", 32),
			SizeBytes: 1234,
			Objective: "binary:logistic",
			Trees:     2,
			Columns:   features.Columns(),
		},
	}
}

func (s *stubDeps) Collect(_ context.Context, values features.Values) (features.Vector, []features.Adjustment, error) {
	return s.collector.Collect(values)
}

func (s *stubDeps) Analyze(_ context.Context, v features.Vector) quality.Outcome {
	n := s.analyzed.Add(1)
	s.lastSeen.Store(v)
	id := fmt.Sprintf("analysis-%d", n)
	if s.fail != nil {
		return quality.Failed(id, &quality.InferenceError{Op: "predict", Err: s.fail})
	}
	p, err := quality.NewPrediction(s.label, s.proba)
	if err != nil {
		return quality.Failed(id, &quality.InferenceError{Op: "validate", Err: err})
	}
	return quality.Succeeded(id, p)
}

func (s *stubDeps) ModelInfo() (classifier.Info, bool) {
	if s.model == nil {
		return classifier.Info{}, false
	}
	return *s.model, true
}

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"analyses": s.analyzed.Load()}
}

func newMux(deps *stubDeps, opts ...api.Option) *http.ServeMux {
	srv, err := api.NewServer(deps, opts...)
	So(err, ShouldBeNil)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeReport(w *httptest.ResponseRecorder) presenter.Report {
	var r presenter.Report
	So(json.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
	return r
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var e errorBody
	So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
	return e
}

func TestNewServer(t *testing.T) {
	Convey("Given no dependencies", t, func() {
		_, err := api.NewServer(nil)
		So(errors.Is(err, api.ErrServe), ShouldBeTrue)
	})

	Convey("Given a server", t, func() {
		srv, err := api.NewServer(newStubDeps(features.PolicyClamp))
		So(err, ShouldBeNil)

		Convey("When registering on a nil mux", func() {
			So(func() { srv.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestAnalyzeJSON(t *testing.T) {
	const path = "/api/v1/analyze"
	const ct = "application/json"

	Convey("Given the JSON analysis endpoint with a clamping collector", t, func() {
		deps := newStubDeps(features.PolicyClamp)
		mux := newMux(deps)

		Convey("When posting an empty feature set", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{}}`)

			Convey("Then the default vector is analyzed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				r := decodeReport(w)
				So(r.Status, ShouldEqual, presenter.StatusOK)
				So(r.Label, ShouldEqual, "good")
				So(r.Confidence, ShouldEqual, 0.8)
				So(r.Headline.Kind, ShouldEqual, presenter.Affirmative)
				So(r.Headline.Message, ShouldContainSubstring, "80.0%")
				So(r.Chart, ShouldHaveLength, 2)
				So(r.Chart[0].Category, ShouldEqual, "Not Good")
				So(r.Chart[1].Percent, ShouldEqual, "80.0%")
				So(r.Metrics, ShouldHaveLength, 3)
				So(r.Guidance, ShouldHaveLength, 3)
				So(deps.lastSeen.Load(), ShouldResemble, features.Defaults())
			})
		})

		Convey("When a value is outside its bounds", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{"alcohol":20,"pH":3.1}}`)

			Convey("Then it is clamped and reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				r := decodeReport(w)
				So(r.Adjustments, ShouldHaveLength, 1)
				So(r.Adjustments[0].Name, ShouldEqual, "alcohol")
				So(r.Adjustments[0].To, ShouldEqual, 15.0)
				v := deps.lastSeen.Load().(features.Vector)
				So(v.Alcohol, ShouldEqual, 15.0)
				So(v.PH, ShouldEqual, 3.1)
			})
		})

		Convey("When German is requested", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{}}`, "Accept-Language", "de-DE,de;q=0.9")

			Convey("Then numbers use a decimal comma", func() {
				r := decodeReport(w)
				So(r.Lang, ShouldEqual, "de")
				So(r.Chart[1].Percent, ShouldEqual, "80,0%")
			})
		})

		Convey("When the body names the language", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{},"lang":"fr"}`, "Accept-Language", "de")
			So(decodeReport(w).Lang, ShouldEqual, "fr")
		})

		Convey("When the classifier fails", func() {
			deps.fail = errors.New("booster exploded")
			w := do(mux, http.MethodPost, path, ct, `{"features":{}}`)

			Convey("Then the report carries only the error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				r := decodeReport(w)
				So(r.Status, ShouldEqual, presenter.StatusError)
				So(r.Error, ShouldStartWith, presenter.ErrorPrefix)
				So(r.Error, ShouldContainSubstring, "booster exploded")
				So(r.Headline, ShouldBeNil)
				So(r.Chart, ShouldBeEmpty)
				So(r.Probabilities, ShouldBeNil)
			})

			Convey("And the next request is served normally", func() {
				deps.fail = nil
				w := do(mux, http.MethodPost, path, ct, `{"features":{}}`)
				So(decodeReport(w).Status, ShouldEqual, presenter.StatusOK)
			})
		})

		Convey("When the body violates the schema", func() {
			cases := map[string]string{
				"a string value":     `{"features":{"alcohol":"high"}}`,
				"an unknown string":  `{"features":{"colour":"red"}}`,
				"no features":        `{"lang":"en"}`,
				"an extra top level": `{"features":{},"extra":true}`,
				"features as a list": `{"features":[1,2,3]}`,
			}
			for name, body := range cases {
				Convey("With "+name, func() {
					w := do(mux, http.MethodPost, path, ct, body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w).Code, ShouldEqual, "invalid_request")
					So(deps.analyzed.Load(), ShouldEqual, 0)
				})
			}
		})

		Convey("When a feature name is not recognised", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{"alcohol":12,"colour":1}}`)

			Convey("Then it is refused as an unknown field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				e := decodeError(w)
				So(e.Code, ShouldEqual, "unknown_field")
				So(e.Message, ShouldContainSubstring, "colour")
				So(deps.analyzed.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "invalid_json")
		})

		Convey("When the body is empty", func() {
			w := do(mux, http.MethodPost, path, ct, "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is GET", func() {
			w := do(mux, http.MethodGet, path, "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a rejecting collector", t, func() {
		deps := newStubDeps(features.PolicyReject)
		mux := newMux(deps)

		Convey("When a value is outside its bounds", func() {
			w := do(mux, http.MethodPost, path, ct, `{"features":{"density":1.2}}`)

			Convey("Then the request is refused without inference", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				e := decodeError(w)
				So(e.Code, ShouldEqual, "out_of_range")
				So(e.Message, ShouldContainSubstring, "density")
				So(deps.analyzed.Load(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a tiny body limit", t, func() {
		mux := newMux(newStubDeps(features.PolicyClamp), api.WithMaxBodyBytes(16))
		w := do(mux, http.MethodPost, path, ct, `{"features":{"alcohol":12.5,"pH":3.2}}`)
		So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		So(decodeError(w).Code, ShouldEqual, "payload_too_large")
	})

	Convey("Given a German default locale", t, func() {
		mux := newMux(newStubDeps(features.PolicyClamp), api.WithDefaultLang(language.German))
		w := do(mux, http.MethodPost, path, ct, `{"features":{}}`)
		So(decodeReport(w).Lang, ShouldEqual, "de")
	})
}

func TestDashboard(t *testing.T) {
	const form = "application/x-www-form-urlencoded"

	Convey("Given the dashboard", t, func() {
		deps := newStubDeps(features.PolicyClamp)
		mux := newMux(deps)

		Convey("When opening the page", func() {
			w := do(mux, http.MethodGet, "/", "", "")

			Convey("Then the form holds every field with its default", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
				body := w.Body.String()
				for _, s := range features.Specs() {
					So(body, ShouldContainSubstring, `name="`+s.Name+`"`)
				}
				So(body, ShouldContainSubstring, `value="46"`)
				So(body, ShouldContainSubstring, "Basic Properties")
				So(body, ShouldContainSubstring, "Typical Value Ranges")
				So(body, ShouldContainSubstring, "How It Works")
				So(body, ShouldNotContainSubstring, "Quality Insights")
			})
		})

		Convey("When opening an unknown page", func() {
			w := do(mux, http.MethodGet, "/nope", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When submitting the form", func() {
			values := url.Values{"alcohol": {"12.5"}, "pH": {"3.2"}}
			w := do(mux, http.MethodPost, "/analyze", form, values.Encode())

			Convey("Then the result is rendered with its chart", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, "Excellent Quality Wine!")
				So(body, ShouldContainSubstring, "Quality Insights")
				So(body, ShouldContainSubstring, "<svg")
				So(body, ShouldContainSubstring, presenter.ColorGood)
				So(body, ShouldContainSubstring, presenter.ColorNotGood)
				So(body, ShouldContainSubstring, "Key Quality Factors")
				So(body, ShouldContainSubstring, `value="12.5"`)
			})
		})

		Convey("When the classifier says not good", func() {
			deps.label = 0
			deps.proba = []float64{0.65, 0.35}
			w := do(mux, http.MethodPost, "/analyze", form, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Needs Improvement")
			So(w.Body.String(), ShouldContainSubstring, "65.0%")
		})

		Convey("When a field is not a number", func() {
			w := do(mux, http.MethodPost, "/analyze", form, "alcohol=lots")

			Convey("Then the form is shown again with an error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "Invalid input")
				So(w.Body.String(), ShouldContainSubstring, `value="lots"`)
				So(deps.analyzed.Load(), ShouldEqual, 0)
			})
		})

		Convey("When a field is not finite", func() {
			w := do(mux, http.MethodPost, "/analyze", form, "sulphates=NaN")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "not a finite number")
		})

		Convey("When the classifier fails", func() {
			deps.fail = errors.New("model unavailable")
			w := do(mux, http.MethodPost, "/analyze", form, "")

			Convey("Then only the error banner is shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, "An error occurred during prediction: ")
				So(body, ShouldContainSubstring, "model unavailable")
				So(body, ShouldNotContainSubstring, "Quality Insights")
				So(body, ShouldNotContainSubstring, "<svg")
			})
		})

		Convey("When the form endpoint is fetched with GET", func() {
			w := do(mux, http.MethodGet, "/analyze", "", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given a server with a loaded model", t, func() {
		deps := newStubDeps(features.PolicyClamp)
		mux := newMux(deps)

		Convey("When listing fields", func() {
			w := do(mux, http.MethodGet, "/api/v1/fields", "", "")
			var fields []map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &fields), ShouldBeNil)

			Convey("Then all eleven are returned in column order", func() {
				So(fields, ShouldHaveLength, features.Count)
				So(fields[0]["name"], ShouldEqual, "fixed_acidity")
				So(fields[10]["name"], ShouldEqual, "alcohol")
				So(fields[8]["column"], ShouldEqual, "pH")
				So(fields[7]["step"], ShouldEqual, 0.0001)
			})
		})

		Convey("When describing the model", func() {
			w := do(mux, http.MethodGet, "/api/v1/model", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var info classifier.Info
			So(json.Unmarshal(w.Body.Bytes(), &info), ShouldBeNil)
			So(info.Format, ShouldEqual, classifier.FormatXGBoost)
			So(info.Trees, ShouldEqual, 2)
		})

		Convey("When fetching the ML-BOM", func() {
			w := do(mux, http.MethodGet, "/api/v1/model/bom", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/vnd.cyclonedx+json")
			var doc map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)
			So(doc["bomFormat"], ShouldEqual, "CycloneDX")
			So(w.Body.String(), ShouldContainSubstring, "machine-learning-model")
		})

		Convey("When probing health", func() {
			w := do(mux, http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"model_loaded":true`)
		})

		Convey("When reading stats", func() {
			do(mux, http.MethodPost, "/api/v1/analyze", "application/json", `{"features":{}}`)
			w := do(mux, http.MethodGet, "/stats", "", "")
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["analyses"], ShouldEqual, 1.0)
		})

		Convey("When scraping metrics", func() {
			do(mux, http.MethodGet, "/healthz", "", "")
			w := do(mux, http.MethodGet, "/metrics", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})

	Convey("Given a server without a model", t, func() {
		deps := newStubDeps(features.PolicyClamp)
		deps.model = nil
		mux := newMux(deps)

		for _, path := range []string{"/api/v1/model", "/api/v1/model/bom"} {
			w := do(mux, http.MethodGet, path, "", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w).Code, ShouldEqual, "no_model")
		}
		w := do(mux, http.MethodGet, "/healthz", "", "")
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"model_loaded":false`)
	})
}

func TestChartGeometry(t *testing.T) {
	Convey("Given probabilities at the extremes", t, func() {
		deps := newStubDeps(features.PolicyClamp)
		deps.label = 0
		deps.proba = []float64{1, 0}
		mux := newMux(deps)
		w := do(mux, http.MethodPost, "/analyze", "application/x-www-form-urlencoded", "")

		Convey("Then the empty bar has zero height and the full bar spans the plot", func() {
			body := w.Body.String()
			So(body, ShouldContainSubstring, `height="240.0"`)
			So(body, ShouldContainSubstring, `height="0.0"`)
		})
	})
}
