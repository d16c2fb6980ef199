package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithOptions(logger.WithWriter(&bytes.Buffer{}))
}

func fakeAPI() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","model_loaded":true,"version":"1.0.0","database":"memory"}`))
	})
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var rec employee.Record
		_ = json.NewDecoder(r.Body).Decode(&rec)
		if rec[employee.HeureSupplementaires] == "Oui" {
			_, _ = w.Write([]byte(`{"prediction":1,"probability":0.9,"label":"Risque de départ"}`))
			return
		}
		_, _ = w.Write([]byte(`{"prediction":0,"probability":0.1,"label":"Stable"}`))
	})
	mux.HandleFunc("POST /predict/batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Employees []employee.Record `json:"employees"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]int{"total": len(body.Employees)})
	})
	return httptest.NewServer(mux)
}

func writeFile(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	convey.Convey("Given the CLI and a fake API", t, func() {
		ts := fakeAPI()
		convey.Reset(ts.Close)
		ctx := context.Background()
		var out bytes.Buffer

		convey.Convey("When health is run", func() {
			err := run(ctx, []string{"-url", ts.URL, "health"}, &out)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, `"model_loaded": true`)
		})

		convey.Convey("When predict reads a record from a file", func() {
			path := writeFile(t, employee.AtRiskExample())
			err := run(ctx, []string{"-url", ts.URL, "predict", "-file", path}, &out)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, `"prediction": 1`)
		})

		convey.Convey("When batch reads a bare array or an envelope", func() {
			recs := []employee.Record{employee.StableExample(), employee.AtRiskExample()}
			for _, input := range []interface{}{recs, map[string]interface{}{"employees": recs}} {
				out.Reset()
				err := run(ctx, []string{"-url", ts.URL, "batch", "-file", writeFile(t, input)}, &out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, `"total": 2`)
			}
		})

		convey.Convey("When examples is run", func() {
			err := run(ctx, []string{"-url", ts.URL, "examples"}, &out)
			convey.So(err, convey.ShouldBeNil)
			var results map[string]map[string]interface{}
			convey.So(json.Unmarshal(out.Bytes(), &results), convey.ShouldBeNil)
			convey.So(results["stable"]["prediction"], convey.ShouldEqual, 0.0)
			convey.So(results["at_risk"]["prediction"], convey.ShouldEqual, 1.0)
		})

		convey.Convey("When arguments are missing or unknown", func() {
			convey.So(errors.Is(run(ctx, nil, &out), errUsage), convey.ShouldBeTrue)
			convey.So(errors.Is(run(ctx, []string{"predict"}, &out), errUsage), convey.ShouldBeTrue)
			convey.So(errors.Is(run(ctx, []string{"fly"}, &out), errUsage), convey.ShouldBeTrue)
		})
	})
}
