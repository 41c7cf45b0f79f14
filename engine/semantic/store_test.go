package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- Mocks ---

type mockPoints struct {
	upsertResp *pb.PointsOperationResponse
	upsertErr  error
	deleteResp *pb.PointsOperationResponse
	deleteErr  error
	searchResp *pb.SearchResponse
	searchErr  error

	lastUpsert *pb.UpsertPoints
	lastDelete *pb.DeletePoints
	lastSearch *pb.SearchPoints
}

func (m *mockPoints) Upsert(_ context.Context, req *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.lastUpsert = req
	return m.upsertResp, m.upsertErr
}
func (m *mockPoints) Delete(_ context.Context, req *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.lastDelete = req
	return m.deleteResp, m.deleteErr
}
func (m *mockPoints) Search(_ context.Context, req *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.lastSearch = req
	return m.searchResp, m.searchErr
}

type mockCollections struct {
	listResp   *pb.ListCollectionsResponse
	listErr    error
	createResp *pb.CollectionOperationResponse
	createErr  error
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	return m.listResp, m.listErr
}
func (m *mockCollections) Create(_ context.Context, _ *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	return m.createResp, m.createErr
}
func (m *mockCollections) Delete(_ context.Context, _ *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	return nil, nil
}

// --- Tests ---

func TestNewWithClients(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{}, "recall")
	if vs == nil {
		t.Fatal("expected non-nil")
	}
	if err := vs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEnsureCollection_AlreadyExists(t *testing.T) {
	cols := &mockCollections{
		listResp: &pb.ListCollectionsResponse{
			Collections: []*pb.CollectionDescription{{Name: "recall"}},
		},
	}
	vs := NewWithClients(&mockPoints{}, cols, "recall")
	if err := vs.EnsureCollection(context.Background(), DefaultDims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCollection_Creates(t *testing.T) {
	cols := &mockCollections{
		listResp:   &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{}},
		createResp: &pb.CollectionOperationResponse{Result: true},
	}
	vs := NewWithClients(&mockPoints{}, cols, "recall")
	if err := vs.EnsureCollection(context.Background(), DefaultDims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCollection_ListError(t *testing.T) {
	cols := &mockCollections{listErr: errors.New("boom")}
	vs := NewWithClients(&mockPoints{}, cols, "recall")
	if err := vs.EnsureCollection(context.Background(), DefaultDims); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpsert_Empty(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "recall")
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pts.lastUpsert != nil {
		t.Fatal("empty upsert should not hit qdrant")
	}
}

func TestUpsert_PayloadConversion(t *testing.T) {
	pts := &mockPoints{upsertResp: &pb.PointsOperationResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "recall")

	rec := VectorRecord{
		ID:        "11111111-2222-3333-4444-555555555555",
		Embedding: []float32{0.1, 0.2},
		Payload: map[string]any{
			KeyText:       "chunk text",
			KeyChannelID:  "chan-9",
			KeyChunkIndex: 2,
			"flagged":     true,
			"action_items": []string{
				"ship the beta", "write release notes",
			},
		},
	}
	if err := vs.Upsert(context.Background(), []VectorRecord{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := pts.lastUpsert.GetPoints()[0].GetPayload()
	if got := payload[KeyText].GetStringValue(); got != "chunk text" {
		t.Errorf("text = %q", got)
	}
	if got := payload[KeyChunkIndex].GetIntegerValue(); got != 2 {
		t.Errorf("chunk_index = %d", got)
	}
	if got := payload["flagged"].GetBoolValue(); !got {
		t.Error("flagged not converted")
	}
	items := payload["action_items"].GetListValue().GetValues()
	if len(items) != 2 || items[0].GetStringValue() != "ship the beta" {
		t.Errorf("action_items list mangled: %v", items)
	}
}

func TestUpsert_Error(t *testing.T) {
	pts := &mockPoints{upsertErr: errors.New("unavailable")}
	vs := NewWithClients(pts, &mockCollections{}, "recall")
	err := vs.Upsert(context.Background(), []VectorRecord{{ID: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteByChannel(t *testing.T) {
	pts := &mockPoints{deleteResp: &pb.PointsOperationResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "recall")
	if err := vs.DeleteByChannel(context.Background(), "chan-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filter := pts.lastDelete.GetPoints().GetFilter()
	if len(filter.GetMust()) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(filter.GetMust()))
	}
	cond := filter.GetMust()[0].GetField()
	if cond.GetKey() != KeyChannelID || cond.GetMatch().GetKeyword() != "chan-9" {
		t.Errorf("filter = %s=%s", cond.GetKey(), cond.GetMatch().GetKeyword())
	}
}

func TestQuery_DecodesHits(t *testing.T) {
	pts := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "a"}},
					Score: 0.92,
					Payload: map[string]*pb.Value{
						KeyText:        {Kind: &pb.Value_StringValue{StringValue: "we chose postgres"}},
						KeyChannelID:   {Kind: &pb.Value_StringValue{StringValue: "chan-9"}},
						KeyTimestamp:   {Kind: &pb.Value_StringValue{StringValue: "2026-03-01T10:00:00Z"}},
						KeyChunkIndex:  {Kind: &pb.Value_IntegerValue{IntegerValue: 3}},
						KeyTotalChunks: {Kind: &pb.Value_IntegerValue{IntegerValue: 7}},
						"decisions_made": {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{
							Values: []*pb.Value{{Kind: &pb.Value_StringValue{StringValue: "use postgres"}}},
						}}},
					},
				},
			},
		},
	}
	vs := NewWithClients(pts, &mockCollections{}, "recall")

	hits, err := vs.Query(context.Background(), []float32{1, 0}, "chan-9", 5, 0.3, Filters{KeyChunkIndex: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	h := hits[0]
	if h.Text != "we chose postgres" || h.ChunkIndex != 3 || h.TotalChunks != 7 {
		t.Errorf("hit decoded wrong: %+v", h)
	}
	if got := h.Sections["decisions_made"]; len(got) != 1 || got[0] != "use postgres" {
		t.Errorf("sections decoded wrong: %v", h.Sections)
	}

	// Channel filter always present, extra filter ANDed.
	must := pts.lastSearch.GetFilter().GetMust()
	if len(must) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(must))
	}
	if pts.lastSearch.GetScoreThreshold() != 0.3 {
		t.Errorf("score threshold = %v", pts.lastSearch.GetScoreThreshold())
	}
}

func TestQuery_FiltersBelowMinScore(t *testing.T) {
	pts := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "lo"}}, Score: 0.1},
				{Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "hi"}}, Score: 0.8},
			},
		},
	}
	vs := NewWithClients(pts, &mockCollections{}, "recall")
	hits, err := vs.Query(context.Background(), []float32{1}, "c", 5, 0.3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "hi" {
		t.Errorf("expected only the high hit, got %+v", hits)
	}
}

func TestQuery_Error(t *testing.T) {
	pts := &mockPoints{searchErr: errors.New("timeout")}
	vs := NewWithClients(pts, &mockCollections{}, "recall")
	if _, err := vs.Query(context.Background(), []float32{1}, "c", 5, 0.3, nil); err == nil {
		t.Fatal("expected error")
	}
}
