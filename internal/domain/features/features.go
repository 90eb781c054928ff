// Package features defines the wine-chemistry feature vector fed to the
// quality classifier and the bounds every field must respect.
package features

import "fmt"

// Field identifies one of the eleven measurements. The constant value is the
// column index the classifier was trained with.
type Field int

// Fields in classifier column order.
const (
	FixedAcidity Field = iota
	VolatileAcidity
	CitricAcid
	ResidualSugar
	Chlorides
	FreeSulfurDioxide
	TotalSulfurDioxide
	Density
	PH
	Sulphates
	Alcohol

	// Count is the number of features the classifier consumes.
	Count = int(Alcohol) + 1
)

// Array is the ordered numeric input of the classifier.
type Array [Count]float64

// Spec describes the bounds and presentation of a field.
type Spec struct {
	Field Field
	// Name is the snake_case key used by forms, JSON and YAML.
	Name string
	// Column is the column name of the training data set.
	Column  string
	Label   string
	Unit    string
	Help    string
	Min     float64
	Max     float64
	Default float64
	// Step is the UI increment; it is never used for validation.
	Step float64
	// Group splits the form into the "basic" and "advanced" panels.
	Group string
}

const (
	groupBasic    = "basic"
	groupAdvanced = "advanced"
)

var specs = [Count]Spec{
	FixedAcidity: {
		Name: "fixed_acidity", Column: "fixed acidity",
		Label: "Fixed Acidity", Unit: "g/dm³", Help: "Non-volatile acids that don't evaporate",
		Min: 4.0, Max: 16.0, Default: 7.0, Step: 0.1, Group: groupBasic,
	},
	VolatileAcidity: {
		Name: "volatile_acidity", Column: "volatile acidity",
		Label: "Volatile Acidity", Unit: "g/dm³", Help: "High levels can lead to unpleasant vinegar taste",
		Min: 0.1, Max: 1.5, Default: 0.5, Step: 0.01, Group: groupBasic,
	},
	CitricAcid: {
		Name: "citric_acid", Column: "citric acid",
		Label: "Citric Acid", Unit: "g/dm³", Help: "Adds freshness and flavor",
		Min: 0.0, Max: 1.0, Default: 0.3, Step: 0.01, Group: groupBasic,
	},
	ResidualSugar: {
		Name: "residual_sugar", Column: "residual sugar",
		Label: "Residual Sugar", Unit: "g/dm³", Help: "Amount of sugar remaining after fermentation",
		Min: 0.0, Max: 15.0, Default: 2.0, Step: 0.1, Group: groupBasic,
	},
	Chlorides: {
		Name: "chlorides", Column: "chlorides",
		Label: "Chlorides", Unit: "g/dm³", Help: "Salt content in the wine",
		Min: 0.01, Max: 0.9, Default: 0.05, Step: 0.001, Group: groupAdvanced,
	},
	FreeSulfurDioxide: {
		Name: "free_sulfur_dioxide", Column: "free sulfur dioxide",
		Label: "Free SO₂", Unit: "mg/dm³", Help: "Prevents microbial growth and oxidation",
		Min: 1, Max: 80, Default: 15, Step: 1, Group: groupAdvanced,
	},
	TotalSulfurDioxide: {
		Name: "total_sulfur_dioxide", Column: "total sulfur dioxide",
		Label: "Total SO₂", Unit: "mg/dm³", Help: "Total sulfur dioxide content",
		Min: 6, Max: 300, Default: 46, Step: 1, Group: groupAdvanced,
	},
	Density: {
		Name: "density", Column: "density",
		Label: "Density", Unit: "g/cm³", Help: "Density of the wine",
		Min: 0.99, Max: 1.005, Default: 0.995, Step: 0.0001, Group: groupAdvanced,
	},
	PH: {
		Name: "pH", Column: "pH",
		Label: "pH Level", Unit: "", Help: "Acidity level on pH scale",
		Min: 2.8, Max: 4.0, Default: 3.3, Step: 0.01, Group: groupAdvanced,
	},
	Sulphates: {
		Name: "sulphates", Column: "sulphates",
		Label: "Sulphates", Unit: "g/dm³", Help: "Additives that can affect SO₂ levels",
		Min: 0.2, Max: 2.0, Default: 0.5, Step: 0.01, Group: groupAdvanced,
	},
	Alcohol: {
		Name: "alcohol", Column: "alcohol",
		Label: "Alcohol", Unit: "% vol", Help: "Alcohol content percentage",
		Min: 8.0, Max: 15.0, Default: 10.0, Step: 0.1, Group: groupAdvanced,
	},
}

func init() {
	for i := range specs {
		specs[i].Field = Field(i)
	}
}

// Spec returns the bounds and metadata of f.
func (f Field) Spec() Spec {
	if !f.Valid() {
		return Spec{Field: f}
	}
	return specs[f]
}

// Valid reports whether f is one of the eleven known fields.
func (f Field) Valid() bool { return f >= 0 && int(f) < Count }

// String returns the snake_case name of f.
func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return specs[f].Name
}

// DisplayLabel returns the label with its unit, e.g. "Alcohol (% vol)".
func (s Spec) DisplayLabel() string {
	if s.Unit == "" {
		return s.Label
	}
	return s.Label + " (" + s.Unit + ")"
}

// Contains reports whether v lies within [Min, Max].
func (s Spec) Contains(v float64) bool { return v >= s.Min && v <= s.Max }

// Specs returns all field specs in column order.
func Specs() []Spec {
	out := make([]Spec, Count)
	copy(out, specs[:])
	return out
}

// Columns returns the training column names in column order.
func Columns() []string {
	out := make([]string, Count)
	for i, s := range specs {
		out[i] = s.Column
	}
	return out
}

// Lookup resolves a snake_case field name.
func Lookup(name string) (Field, bool) {
	for i, s := range specs {
		if s.Name == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Vector is one wine sample. Construct it through a Collector so every value
// is within bounds.
type Vector struct {
	FixedAcidity       float64 `json:"fixed_acidity" yaml:"fixed_acidity"`
	VolatileAcidity    float64 `json:"volatile_acidity" yaml:"volatile_acidity"`
	CitricAcid         float64 `json:"citric_acid" yaml:"citric_acid"`
	ResidualSugar      float64 `json:"residual_sugar" yaml:"residual_sugar"`
	Chlorides          float64 `json:"chlorides" yaml:"chlorides"`
	FreeSulfurDioxide  float64 `json:"free_sulfur_dioxide" yaml:"free_sulfur_dioxide"`
	TotalSulfurDioxide float64 `json:"total_sulfur_dioxide" yaml:"total_sulfur_dioxide"`
	Density            float64 `json:"density" yaml:"density"`
	PH                 float64 `json:"pH" yaml:"pH"`
	Sulphates          float64 `json:"sulphates" yaml:"sulphates"`
	Alcohol            float64 `json:"alcohol" yaml:"alcohol"`
}

// Defaults returns the vector made of every field's default value.
func Defaults() Vector {
	var a Array
	for i, s := range specs {
		a[i] = s.Default
	}
	return FromArray(a)
}

// Array returns the classifier input in column order.
func (v Vector) Array() Array {
	return Array{
		FixedAcidity:       v.FixedAcidity,
		VolatileAcidity:    v.VolatileAcidity,
		CitricAcid:         v.CitricAcid,
		ResidualSugar:      v.ResidualSugar,
		Chlorides:          v.Chlorides,
		FreeSulfurDioxide:  v.FreeSulfurDioxide,
		TotalSulfurDioxide: v.TotalSulfurDioxide,
		Density:            v.Density,
		PH:                 v.PH,
		Sulphates:          v.Sulphates,
		Alcohol:            v.Alcohol,
	}
}

// FromArray is the inverse of Vector.Array.
func FromArray(a Array) Vector {
	return Vector{
		FixedAcidity:       a[FixedAcidity],
		VolatileAcidity:    a[VolatileAcidity],
		CitricAcid:         a[CitricAcid],
		ResidualSugar:      a[ResidualSugar],
		Chlorides:          a[Chlorides],
		FreeSulfurDioxide:  a[FreeSulfurDioxide],
		TotalSulfurDioxide: a[TotalSulfurDioxide],
		Density:            a[Density],
		PH:                 a[PH],
		Sulphates:          a[Sulphates],
		Alcohol:            a[Alcohol],
	}
}

// Get returns the value of f.
func (v Vector) Get(f Field) float64 {
	if !f.Valid() {
		return 0
	}
	return v.Array()[f]
}

// Float32 converts the array for backends that consume single precision.
func (a Array) Float32() []float32 {
	out := make([]float32, Count)
	for i, x := range a {
		out[i] = float32(x)
	}
	return out
}
