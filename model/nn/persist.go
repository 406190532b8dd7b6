package nn

import (
	"encoding/json"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
	"io"
)

/*
State is the serializable form of a network
*/
type State struct {
	Features  []string             `json:"features"`
	Predicted string               `json:"predicted"`
	Layers    []LayerState         `json:"layers"`
	Scaler    *prep.StandardScaler `json:"scaler,omitempty"`
}

type LayerState struct {
	Kind       string    `json:"kind"`
	Inputs     int       `json:"inputs,omitempty"`
	Units      int       `json:"units,omitempty"`
	Activation string    `json:"activation,omitempty"`
	Rate       float64   `json:"rate,omitempty"`
	Weights    []float64 `json:"weights,omitempty"`
	Bias       []float64 `json:"bias,omitempty"`
}

func (net *Network) State() State {
	s := State{Features: net.Features(), Predicted: net.predicted, Scaler: net.scaler}
	for _, l := range net.layers {
		s.Layers = append(s.Layers, l.state())
	}
	return s
}

/*
Memorize writes the network as JSON
*/
func (net *Network) Memorize(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(net.State()); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

/*
Restore creates a network from its serialized state
*/
func Restore(s State) (*Network, error) {
	if len(s.Features) == 0 {
		return nil, zorros.Errorf("model has no features")
	}
	if s.Scaler != nil && (len(s.Scaler.Mean) != len(s.Features) || len(s.Scaler.Scale) != len(s.Features)) {
		return nil, zorros.Errorf("scaler has %d/%d features, model has %d",
			len(s.Scaler.Mean), len(s.Scaler.Scale), len(s.Features))
	}
	layers := make([]Layer, len(s.Layers))
	n := len(s.Features)
	for i, ls := range s.Layers {
		switch ls.Kind {
		case "dense":
			if ls.Inputs != n || len(ls.Weights) != ls.Inputs*ls.Units || len(ls.Bias) != ls.Units || ls.Units <= 0 {
				return nil, zorros.Errorf("layer %d: malformed dense layer %dx%d", i, ls.Inputs, ls.Units)
			}
			f, err := activation(ls.Activation)
			if err != nil {
				return nil, err
			}
			d := Dense(ls.Units, f)
			d.weights = mat.NewDense(ls.Inputs, ls.Units, append([]float64(nil), ls.Weights...))
			d.bias = mat.NewDense(1, ls.Units, append([]float64(nil), ls.Bias...))
			layers[i] = d
			n = ls.Units
		case "dropout":
			layers[i] = Dropout(ls.Rate)
		default:
			return nil, zorros.Errorf("layer %d: unknown layer kind %q", i, ls.Kind)
		}
	}
	if n != 1 {
		return nil, zorros.Errorf("model must have exactly one output, got %d", n)
	}
	return &Network{
		features:  append([]string(nil), s.Features...),
		predicted: s.Predicted,
		inputs:    len(s.Features),
		layers:    layers,
		scaler:    s.Scaler,
	}, nil
}

/*
Load reads a network memorized by training into the model file
*/
func Load(path string) (*Network, error) {
	rd, err := model.Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	s := State{}
	if err = json.NewDecoder(rd).Decode(&s); err != nil {
		return nil, zorros.Wrapf(err, "failed to decode model %v: %v", path, err.Error())
	}
	if s.Predicted == "" {
		s.Predicted = model.PredictedCol
	}
	return Restore(s)
}

/*
LuckyLoad is Load panicking on error
*/
func LuckyLoad(path string) *Network {
	net, err := Load(path)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return net
}
