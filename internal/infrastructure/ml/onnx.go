package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig names the graph endpoints of an exported classifier.
type ONNXConfig struct {
	// SharedLibrary is the onnxruntime shared library; empty uses the
	// platform default search path.
	SharedLibrary string `yaml:"shared_library"`
	Input         string `yaml:"input"`
	// Output is a [N, classes] float32 probability tensor.
	Output  string `yaml:"output"`
	Classes int    `yaml:"classes"`
	// PositiveClass is the probability column reported; 1 when omitted.
	PositiveClass *int `yaml:"positive_class"`
}

func (c *ONNXConfig) applyDefaults() {
	if c.Input == "" {
		c.Input = "float_input"
	}
	if c.Output == "" {
		c.Output = "probabilities"
	}
	if c.Classes == 0 {
		c.Classes = 2
	}
}

func (c ONNXConfig) positive() int {
	if c.PositiveClass == nil {
		return 1
	}
	return *c.PositiveClass
}

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(lib string) error {
	envOnce.Do(func() {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// ONNXClassifier scores rows with an onnxruntime session. Runs are
// serialized; a session is not safe for concurrent Run calls.
type ONNXClassifier struct {
	mu       sync.Mutex
	session  *ort.DynamicAdvancedSession
	features []string
	classes  int
	positive int
}

// NewONNXClassifier loads the model at path. featureNames fixes the input
// column order, which the graph itself does not record.
func NewONNXClassifier(path string, featureNames []string, cfg ONNXConfig) (*ONNXClassifier, error) {
	if len(featureNames) == 0 {
		return nil, errors.New("onnx: feature names are required")
	}
	cfg.applyDefaults()
	positive := cfg.positive()
	if positive < 0 || positive >= cfg.Classes {
		return nil, fmt.Errorf("onnx: positive class %d outside [0,%d)", positive, cfg.Classes)
	}
	if err := initEnvironment(cfg.SharedLibrary); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{cfg.Input}, []string{cfg.Output}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx: load %s: %w", path, err)
	}
	features := make([]string, len(featureNames))
	copy(features, featureNames)
	return &ONNXClassifier{session: session, features: features, classes: cfg.Classes, positive: positive}, nil
}

// FeatureNames returns a copy of the input column order.
func (c *ONNXClassifier) FeatureNames() []string {
	out := make([]string, len(c.features))
	copy(out, c.features)
	return out
}

// PredictProba runs the whole batch through the session in one call.
func (c *ONNXClassifier) PredictProba(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []float64{}, nil
	}
	width := len(c.features)
	flat := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(len(rows)), int64(c.classes)))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer output.Destroy()

	c.mu.Lock()
	err = c.session.Run([]ort.Value{input}, []ort.Value{output})
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx: run: %w", err)
	}

	probs := output.GetData()
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = float64(probs[i*c.classes+c.positive])
	}
	return out, nil
}

// Close releases the session.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}
