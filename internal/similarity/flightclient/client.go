// Package flightclient fetches sentence embeddings from an Arrow Flight
// embedding server and compares them by cosine similarity.
//
// The ticket is a JSON document {"model": ..., "texts": [a, b]}. The server
// answers with record batches holding one row per text, in order, in a
// column named "embedding" of type list<float32> or
// fixed_size_list<float32>.
package flightclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/similarity"
)

const EmbeddingColumn = "embedding"

var (
	ErrNotConnected = errors.New("client not connected, call Connect() first")
	ErrBadReply     = errors.New("unexpected flight reply")
)

// Ticket is the DoGet request understood by the embedding server.
type Ticket struct {
	Model string   `json:"model,omitempty"`
	Texts []string `json:"texts"`
}

// Client wraps an Arrow Flight connection to the embedding server.
type Client struct {
	mu     sync.RWMutex
	client flight.Client
	addr   string
	model  string
	log    *logger.Logger
}

func New(addr, model string) *Client {
	return &Client{
		addr:  addr,
		model: model,
		log:   logger.Log.With("flight"),
	}
}

func (c *Client) Name() string { return "flight" }

// Connect dials the server. The gRPC connection is established lazily, so a
// nil error does not mean the server is reachable.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := flight.NewClientWithMiddleware(c.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to create Flight client: %w", err)
	}

	c.mu.Lock()
	old := c.client
	c.client = client
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.log.Debug("flight client ready", "addr", c.addr, "model", c.model)
	return nil
}

// Ready reports ErrNotConnected until Connect has succeeded.
func (c *Client) Ready() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := c.Embed(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return similarity.Cosine(vecs[0], vecs[1])
}

// Embed returns one embedding per text, in request order.
func (c *Client) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConnected
	}

	raw, err := json.Marshal(Ticket{Model: c.model, Texts: texts})
	if err != nil {
		return nil, err
	}

	stream, err := client.DoGet(ctx, &flight.Ticket{Ticket: raw})
	if err != nil {
		return nil, fmt.Errorf("DoGet: %w", err)
	}
	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, fmt.Errorf("open record stream: %w", err)
	}
	defer reader.Release()

	vecs := make([][]float32, 0, len(texts))
	for reader.Next() {
		rows, err := embeddings(reader.Record())
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, rows...)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read record stream: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrBadReply, len(vecs), len(texts))
	}
	return vecs, nil
}

// embeddings copies every row of the embedding column out of rec.
func embeddings(rec arrow.Record) ([][]float32, error) {
	idx := 0
	if found := rec.Schema().FieldIndices(EmbeddingColumn); len(found) > 0 {
		idx = found[0]
	}
	if int(rec.NumCols()) <= idx {
		return nil, fmt.Errorf("%w: no columns", ErrBadReply)
	}

	var (
		values  arrow.Array
		offsets func(i int) (int64, int64)
	)
	switch col := rec.Column(idx).(type) {
	case *array.List:
		values, offsets = col.ListValues(), col.ValueOffsets
	case *array.FixedSizeList:
		values, offsets = col.ListValues(), col.ValueOffsets
	default:
		return nil, fmt.Errorf("%w: column type %s", ErrBadReply, col.DataType())
	}
	floats, ok := values.(*array.Float32)
	if !ok {
		return nil, fmt.Errorf("%w: element type %s", ErrBadReply, values.DataType())
	}

	col := rec.Column(idx)
	raw := floats.Float32Values()
	out := make([][]float32, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			return nil, fmt.Errorf("%w: null embedding at row %d", ErrBadReply, i)
		}
		start, end := offsets(i)
		row := make([]float32, end-start)
		copy(row, raw[start:end])
		out = append(out, row)
	}
	return out, nil
}
