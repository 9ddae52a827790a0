// Package initwfn implements weight initialisation algorithms for the
// linear layers of the actor and critic networks. Initialisers are
// described by JSON serializable configurations so that they can be
// stored in configuration files, and are bound to an explicit random
// source when created so that initialisation is reproducible.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Type describes different types of initialisers that are available.
// Type is used to implement a basic type system of initialisers.
type Type string

// Available initialiser types
const (
	Uniform       Type = "Uniform"
	HiddenUniform Type = "HiddenUniform"
)

// Initializer initializes the weights of a layer in place
type Initializer interface {
	Initialize(weights *mat.Dense)
}

// Config implements an initialiser configuration and can be used to
// create the described Initializer.
type Config interface {
	// Create returns the Initializer that the Config describes, drawing
	// random numbers from src
	Create(src rand.Source) Initializer

	// Type returns the type of Initializer that is returned
	Type() Type
}

// InitWFn wraps an initialiser Config so that it can be JSON marshalled
// and unmarshalled.
type InitWFn struct {
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	if c == nil {
		return nil, fmt.Errorf("newinitwfn: nil config")
	}
	return &InitWFn{Type: c.Type(), Config: c}, nil
}

// Initializer returns the wrapped Initializer, drawing random numbers
// from src
func (i *InitWFn) Initializer(src rand.Source) Initializer {
	return i.Config.Create(src)
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Uniform):       reflect.TypeOf(UniformConfig{}),
			string(HiddenUniform): reflect.TypeOf(HiddenUniformConfig{}),
		})
	if err != nil {
		return err
	}

	i.Type = typeName
	i.Config = config

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalconfig: missing field %v",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalconfig: unknown type %v",
			typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// fill overwrites each element of weights with a value returned by
// rnd. Elements are visited in row-major order.
func fill(weights *mat.Dense, rnd func() float64) {
	if weights == nil || weights.IsEmpty() {
		return
	}
	r, _ := weights.Dims()
	for i := 0; i < r; i++ {
		row := weights.RawRowView(i)
		for j := range row {
			row[j] = rnd()
		}
	}
}
