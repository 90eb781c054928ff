package features_test

import (
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/okian/winequality/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSpecs(t *testing.T) {
	Convey("Given the field table", t, func() {
		specs := features.Specs()

		Convey("Then it has eleven fields in column order", func() {
			So(len(specs), ShouldEqual, 11)
			So(features.Count, ShouldEqual, 11)
			So(features.Columns(), ShouldResemble, []string{
				"fixed acidity", "volatile acidity", "citric acid", "residual sugar",
				"chlorides", "free sulfur dioxide", "total sulfur dioxide", "density",
				"pH", "sulphates", "alcohol",
			})
			for i, s := range specs {
				So(int(s.Field), ShouldEqual, i)
			}
		})

		Convey("And every default lies within its bounds", func() {
			for _, s := range specs {
				So(s.Contains(s.Default), ShouldBeTrue)
				So(s.Step, ShouldBeGreaterThan, 0)
			}
		})

		Convey("And names resolve back to fields", func() {
			f, ok := features.Lookup("total_sulfur_dioxide")
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, features.TotalSulfurDioxide)
			_, ok = features.Lookup("quality")
			So(ok, ShouldBeFalse)
			So(features.PH.String(), ShouldEqual, "pH")
			So(features.Field(42).String(), ShouldEqual, "field(42)")
		})

		Convey("And display labels carry units", func() {
			So(features.Alcohol.Spec().DisplayLabel(), ShouldEqual, "Alcohol (% vol)")
			So(features.PH.Spec().DisplayLabel(), ShouldEqual, "pH Level")
		})
	})
}

func TestVectorArray(t *testing.T) {
	Convey("Given the default vector", t, func() {
		v := features.Defaults()

		Convey("Then its array follows the fixed column order", func() {
			So(v.Array(), ShouldResemble, features.Array{7.0, 0.5, 0.3, 2.0, 0.05, 15, 46, 0.995, 3.3, 0.5, 10.0})
		})

		Convey("And FromArray round-trips", func() {
			So(features.FromArray(v.Array()), ShouldResemble, v)
			So(v.Get(features.Density), ShouldEqual, 0.995)
			So(v.Get(features.Field(-1)), ShouldEqual, 0)
		})

		Convey("And the float32 view keeps eleven elements", func() {
			So(len(v.Array().Float32()), ShouldEqual, 11)
		})
	})
}

func TestCollector(t *testing.T) {
	Convey("Given a clamping collector", t, func() {
		var adjusted []features.Adjustment
		c := features.NewCollector(features.WithAdjustHook(func(a features.Adjustment) {
			adjusted = append(adjusted, a)
		}))

		Convey("When every field sits at its minimum", func() {
			values := features.Values{}
			for _, s := range features.Specs() {
				values[s.Field] = s.Min
			}
			v, adj, err := c.Collect(values)

			Convey("Then the vector is accepted unchanged", func() {
				So(err, ShouldBeNil)
				So(adj, ShouldBeEmpty)
				for _, s := range features.Specs() {
					So(v.Get(s.Field), ShouldEqual, s.Min)
				}
			})
		})

		Convey("When every field sits at its maximum", func() {
			values := features.Values{}
			for _, s := range features.Specs() {
				values[s.Field] = s.Max
			}
			v, adj, err := c.Collect(values)

			Convey("Then the vector is accepted unchanged", func() {
				So(err, ShouldBeNil)
				So(adj, ShouldBeEmpty)
				for _, s := range features.Specs() {
					So(v.Get(s.Field), ShouldEqual, s.Max)
				}
			})
		})

		Convey("When values fall outside their bounds", func() {
			v, adj, err := c.Collect(features.Values{
				features.Alcohol: 20,
				features.PH:      1.5,
			})

			Convey("Then they are clamped and reported", func() {
				So(err, ShouldBeNil)
				So(v.Alcohol, ShouldEqual, 15.0)
				So(v.PH, ShouldEqual, 2.8)
				So(len(adj), ShouldEqual, 2)
				So(adj[0].Field, ShouldEqual, features.PH)
				So(adj[0].From, ShouldEqual, 1.5)
				So(adj[1].Name, ShouldEqual, "alcohol")
				So(adj[1].To, ShouldEqual, 15.0)
				So(len(adjusted), ShouldEqual, 2)
			})
		})

		Convey("When a value is NaN", func() {
			_, _, err := c.Collect(features.Values{features.Density: math.NaN()})

			Convey("Then it is refused even under the clamp policy", func() {
				So(errors.Is(err, features.ErrNotFinite), ShouldBeTrue)
				var re *features.RangeError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.Field, ShouldEqual, features.Density)
			})
		})

		Convey("When fields are missing", func() {
			v, _, err := c.Collect(features.Values{features.Alcohol: 12.5})

			Convey("Then defaults fill the gaps", func() {
				So(err, ShouldBeNil)
				want := features.Defaults()
				want.Alcohol = 12.5
				So(v, ShouldResemble, want)
			})
		})
	})

	Convey("Given a rejecting collector", t, func() {
		var rejected []features.Field
		c := features.NewCollector(
			features.WithPolicy(features.PolicyReject),
			features.WithRejectHook(func(f features.Field) { rejected = append(rejected, f) }),
		)

		Convey("When a value exceeds its maximum", func() {
			_, _, err := c.Collect(features.Values{features.TotalSulfurDioxide: 301})

			Convey("Then the input is refused", func() {
				So(errors.Is(err, features.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "total_sulfur_dioxide")
				So(rejected, ShouldResemble, []features.Field{features.TotalSulfurDioxide})
			})
		})

		Convey("When values sit exactly on the bounds", func() {
			_, _, err := c.Collect(features.Values{features.Chlorides: 0.01, features.Density: 1.005})

			Convey("Then they are accepted", func() {
				So(err, ShouldBeNil)
				So(c.Policy(), ShouldEqual, features.PolicyReject)
			})
		})
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("Given policy names", t, func() {
		p, err := features.ParsePolicy("REJECT")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, features.PolicyReject)

		p, err = features.ParsePolicy("")
		So(err, ShouldBeNil)
		So(p.String(), ShouldEqual, "clamp")

		_, err = features.ParsePolicy("ignore")
		So(err, ShouldNotBeNil)
	})
}

func TestParsing(t *testing.T) {
	Convey("Given form data in arbitrary order", t, func() {
		form := url.Values{}
		form.Set("alcohol", "12.5")
		form.Set("fixed_acidity", " 8.1 ")
		form.Set("density", "")
		form.Set("submit", "Analyze")

		values, err := features.ParseForm(form)

		Convey("Then only filled field names are kept", func() {
			So(err, ShouldBeNil)
			So(values, ShouldResemble, features.Values{
				features.Alcohol:      12.5,
				features.FixedAcidity: 8.1,
			})
		})

		Convey("And the collected array keeps column order", func() {
			v, _, err := features.NewCollector().Collect(values)
			So(err, ShouldBeNil)
			a := v.Array()
			So(a[0], ShouldEqual, 8.1)
			So(a[10], ShouldEqual, 12.5)
		})
	})

	Convey("Given a malformed form value", t, func() {
		form := url.Values{"pH": {"acidic"}}
		_, err := features.ParseForm(form)
		So(errors.Is(err, features.ErrMalformed), ShouldBeTrue)
	})

	Convey("Given named values", t, func() {
		values, err := features.ValuesFromNames(map[string]float64{"sulphates": 0.7})
		So(err, ShouldBeNil)
		So(values[features.Sulphates], ShouldEqual, 0.7)

		_, err = features.ValuesFromNames(map[string]float64{"quality": 7})
		So(errors.Is(err, features.ErrUnknownField), ShouldBeTrue)
	})

	Convey("Given loosely typed values", t, func() {
		values, err := features.ValuesFromAny(map[string]any{
			"free_sulfur_dioxide": 20,
			"pH":                  "3.1",
			"alcohol":             11.0,
		})
		So(err, ShouldBeNil)
		So(values[features.FreeSulfurDioxide], ShouldEqual, 20.0)
		So(values[features.PH], ShouldEqual, 3.1)

		_, err = features.ValuesFromAny(map[string]any{"alcohol": []int{1}})
		So(errors.Is(err, features.ErrMalformed), ShouldBeTrue)
	})

	Convey("Given a vector", t, func() {
		v := features.Defaults()
		So(len(v.Values()), ShouldEqual, 11)
		So(v.Values()[features.Alcohol], ShouldEqual, 10.0)
	})
}
