package ort

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ortapi "github.com/yalue/onnxruntime_go"

	"github.com/23skdu/miniviva/internal/similarity"
)

var (
	defaultInputNames = []string{"input_ids", "attention_mask", "token_type_ids"}
	defaultOutputName = "last_hidden_state"
)

// Config locates the ONNX runtime, the exported sentence-embedding model and
// its tokenizer.json.
type Config struct {
	SharedLibrary string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Dim           int

	// InputNames lists the model inputs in the order ids, mask[, type ids].
	InputNames []string
	OutputName string
}

// ortEncoder turns text into a mean-pooled, L2-normalized embedding.
type ortEncoder struct {
	mu         sync.Mutex
	session    *ortapi.DynamicAdvancedSession
	tk         *tokenizer.Tokenizer
	maxSeqLen  int
	dim        int
	withTypeID bool
}

func newOrtEncoder(cfg Config) (*ortEncoder, error) {
	if cfg.MaxSeqLen <= 0 {
		return nil, fmt.Errorf("invalid max_seq_len: %d", cfg.MaxSeqLen)
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim: %d", cfg.Dim)
	}
	inputs := cfg.InputNames
	if len(inputs) == 0 {
		inputs = defaultInputNames
	}
	if len(inputs) < 2 || len(inputs) > 3 {
		return nil, fmt.Errorf("expected 2 or 3 model inputs, got %d", len(inputs))
	}
	output := cfg.OutputName
	if output == "" {
		output = defaultOutputName
	}

	if cfg.SharedLibrary != "" {
		ortapi.SetSharedLibraryPath(cfg.SharedLibrary)
	}
	if !ortapi.IsInitialized() {
		if err := ortapi.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("init onnxruntime: %w", err)
		}
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	session, err := ortapi.NewDynamicAdvancedSession(cfg.ModelPath, inputs, []string{output}, nil)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}

	return &ortEncoder{
		session:    session,
		tk:         tk,
		maxSeqLen:  cfg.MaxSeqLen,
		dim:        cfg.Dim,
		withTypeID: len(inputs) == 3,
	}, nil
}

func (e *ortEncoder) Encode(text string) ([]float32, error) {
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	n := len(enc.Ids)
	if n > e.maxSeqLen {
		n = e.maxSeqLen
	}
	if n == 0 {
		return make([]float32, e.dim), nil
	}
	ids := toInt64(enc.Ids, n)
	mask := toInt64(enc.AttentionMask, n)
	types := toInt64(enc.TypeIds, n)

	shape := ortapi.NewShape(1, int64(n))
	idsT, err := ortapi.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ortapi.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()

	in := []ortapi.Value{idsT, maskT}
	if e.withTypeID {
		typesT, err := ortapi.NewTensor(shape, types)
		if err != nil {
			return nil, err
		}
		defer typesT.Destroy()
		in = append(in, typesT)
	}

	out, err := ortapi.NewEmptyTensor[float32](ortapi.NewShape(1, int64(n), int64(e.dim)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()

	e.mu.Lock()
	err = e.session.Run(in, []ortapi.Value{out})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}

	pooled := similarity.MeanPool(out.GetData(), mask, e.dim)
	return similarity.Normalize(pooled), nil
}

func (e *ortEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	if derr := ortapi.DestroyEnvironment(); err == nil {
		err = derr
	}
	return err
}

// toInt64 copies the first n values of v, padding with zeros when v is
// shorter.
func toInt64(v []int, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n && i < len(v); i++ {
		out[i] = int64(v[i])
	}
	return out
}
