// Package onnx runs classifiers exported with skl2onnx through ONNX Runtime.
package onnx

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/model"
)

func init() {
	classifier.Register("onnx", func(path string, opts classifier.Options) (classifier.Classifier, error) {
		return Open(path, opts)
	})
}

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Session wraps a DynamicAdvancedSession over a binary classifier with one
// [N, features] float input and an [N, 2] probabilities output.
type Session struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	features   int64
}

// Open loads the model at path. The runtime library defaults to
// libonnxruntime.so next to the model.
func Open(path string, opts classifier.Options) (*Session, error) {
	libPath := opts.RuntimeLibPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(path), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	inputName, features, err := validateInput(inputs, opts.Features)
	if err != nil {
		return nil, err
	}
	outputName, err := probabilitiesOutput(outputs)
	if err != nil {
		return nil, err
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer so.Destroy()
	so.SetIntraOpNumThreads(2)
	so.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, so)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &Session{
		session:    session,
		inputName:  inputName,
		outputName: outputName,
		features:   features,
	}, nil
}

func validateInput(inputs []ort.InputOutputInfo, want int) (string, int64, error) {
	if len(inputs) != 1 {
		return "", 0, fmt.Errorf("onnx: expected 1 input, model has %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return "", 0, fmt.Errorf("onnx: input %q is %v, want float", in.Name, in.DataType)
	}
	if len(in.Dimensions) != 2 {
		return "", 0, fmt.Errorf("onnx: expected 2D input tensor, got %v", in.Dimensions)
	}
	features := in.Dimensions[1]
	if want > 0 && features > 0 && features != int64(want) {
		return "", 0, &model.SchemaMismatchError{
			Reason: fmt.Sprintf("onnx model expects %d features, schema has %d", features, want),
		}
	}
	if features <= 0 {
		features = int64(want)
	}
	return in.Name, features, nil
}

// probabilitiesOutput picks the float [N, 2] output. skl2onnx also emits an
// int64 label tensor, which is ignored.
func probabilitiesOutput(outputs []ort.InputOutputInfo) (string, error) {
	for _, out := range outputs {
		if out.DataType != ort.TensorElementDataTypeFloat || len(out.Dimensions) != 2 {
			continue
		}
		if d := out.Dimensions[1]; d == 2 || d < 0 {
			return out.Name, nil
		}
	}
	return "", fmt.Errorf("onnx: model has no [N,2] float probabilities output (was it exported with zipmap=False?)")
}

// PredictProba runs one inference call over all rows and returns column 1
// of the probabilities tensor.
func (s *Session) PredictProba(rows []model.Vector) ([]float64, error) {
	n := int64(len(rows))
	flat := make([]float32, 0, n*s.features)
	for r, row := range rows {
		if int64(len(row)) != s.features {
			return nil, &model.FeatureVectorShapeError{Row: r, Want: int(s.features), Got: len(row)}
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	tIn, err := ort.NewTensor(ort.NewShape(n, s.features), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create %s tensor: %w", s.inputName, err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(n, 2))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	data := tOut.GetData()
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(data[2*i+1])
	}
	return out, nil
}

// Close releases the ONNX session resources.
func (s *Session) Close() error {
	return s.session.Destroy()
}
