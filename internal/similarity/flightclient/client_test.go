package flightclient

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// embedServer serves canned embeddings keyed by text.
type embedServer struct {
	flight.BaseFlightServer
	vecs      map[string][]float32
	fixedSize int32
	dropLast  bool
	lastModel string
}

func (s *embedServer) DoGet(tkt *flight.Ticket, fs flight.FlightService_DoGetServer) error {
	var req Ticket
	if err := json.Unmarshal(tkt.GetTicket(), &req); err != nil {
		return err
	}
	s.lastModel = req.Model

	texts := req.Texts
	if s.dropLast && len(texts) > 0 {
		texts = texts[:len(texts)-1]
	}

	var typ arrow.DataType = arrow.ListOf(arrow.PrimitiveTypes.Float32)
	if s.fixedSize > 0 {
		typ = arrow.FixedSizeListOf(s.fixedSize, arrow.PrimitiveTypes.Float32)
	}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "text", Type: arrow.BinaryTypes.String},
		{Name: EmbeddingColumn, Type: typ},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	tb := b.Field(0).(*array.StringBuilder)
	for _, text := range texts {
		tb.Append(text)
		vec := s.vecs[text]
		switch lb := b.Field(1).(type) {
		case *array.ListBuilder:
			lb.Append(true)
			lb.ValueBuilder().(*array.Float32Builder).AppendValues(vec, nil)
		case *array.FixedSizeListBuilder:
			lb.Append(true)
			lb.ValueBuilder().(*array.Float32Builder).AppendValues(vec, nil)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	w := flight.NewRecordWriter(fs, ipc.WithSchema(schema))
	defer w.Close()
	return w.Write(rec)
}

func startServer(t *testing.T, svc *embedServer) string {
	t.Helper()
	srv := flight.NewServerWithMiddleware(nil)
	if err := srv.Init("localhost:0"); err != nil {
		t.Fatalf("init flight server: %v", err)
	}
	srv.RegisterFlightService(svc)
	go srv.Serve()
	t.Cleanup(srv.Shutdown)
	return srv.Addr().String()
}

func connect(t *testing.T, addr string) *Client {
	t.Helper()
	c := New(addr, "all-MiniLM-L6-v2")
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

var testVecs = map[string][]float32{
	"photosynthesis makes sugar": {1, 0, 0},
	"plants produce glucose":     {0.8, 0.6, 0},
	"the moon orbits earth":      {0, 0, 1},
}

func TestSimilarityList(t *testing.T) {
	svc := &embedServer{vecs: testVecs}
	c := connect(t, startServer(t, svc))

	sim, err := c.Similarity(context.Background(), "photosynthesis makes sugar", "plants produce glucose")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if math.Abs(sim-0.8) > 1e-6 {
		t.Errorf("expected 0.8, got %v", sim)
	}
	if svc.lastModel != "all-MiniLM-L6-v2" {
		t.Errorf("expected model in ticket, got %q", svc.lastModel)
	}

	sim, err = c.Similarity(context.Background(), "photosynthesis makes sugar", "the moon orbits earth")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if sim != 0 {
		t.Errorf("expected 0, got %v", sim)
	}
}

func TestSimilarityFixedSizeList(t *testing.T) {
	c := connect(t, startServer(t, &embedServer{vecs: testVecs, fixedSize: 3}))

	sim, err := c.Similarity(context.Background(), "plants produce glucose", "plants produce glucose")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if math.Abs(sim-1) > 1e-6 {
		t.Errorf("expected 1, got %v", sim)
	}
}

func TestEmbedShortReply(t *testing.T) {
	c := connect(t, startServer(t, &embedServer{vecs: testVecs, dropLast: true}))

	_, err := c.Embed(context.Background(), "plants produce glucose", "the moon orbits earth")
	if !errors.Is(err, ErrBadReply) {
		t.Fatalf("expected ErrBadReply, got %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	c := New("localhost:1", "")
	if _, err := c.Similarity(context.Background(), "a", "b"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Ready(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Ready before Connect = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}

func TestReadyAfterConnect(t *testing.T) {
	c := New("localhost:1", "")
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Ready(); err != nil {
		t.Errorf("Ready after Connect = %v", err)
	}
	c.Close()
	if err := c.Ready(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Ready after Close = %v, want ErrNotConnected", err)
	}
}

func TestEmbeddingsRejectsWrongType(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: EmbeddingColumn, Type: arrow.PrimitiveTypes.Float32}}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Float32Builder).Append(1)
	rec := b.NewRecord()
	defer rec.Release()

	if _, err := embeddings(rec); !errors.Is(err, ErrBadReply) {
		t.Fatalf("expected ErrBadReply, got %v", err)
	}
}

func TestName(t *testing.T) {
	if New("x", "").Name() != "flight" {
		t.Error("expected backend name flight")
	}
}
