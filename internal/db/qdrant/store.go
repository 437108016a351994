// Package qdrant is a catalog backend over the Qdrant gRPC API.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kailas-cloud/vecrec/internal/db"
)

// pointNamespace derives stable point ids from SKUs.
var pointNamespace = uuid.MustParse("6f1d3a52-8d7e-4c43-9a35-3f6f0e0b9c21")

type pointsAPI interface {
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

type healthAPI interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Point is one catalog item as stored in Qdrant.
type Point struct {
	Key     string
	Vector  []float32
	Payload map[string]any
}

// Hit is a point returned by a scroll or a search.
type Hit struct {
	Key     string
	Score   float64
	Vector  []float32
	Payload map[string]any
}

// Store owns all Qdrant operations for one collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	health      healthAPI
	collection  string
}

// New connects to Qdrant at the given gRPC address.
func New(addr, collection string) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("qdrant: collection is required")
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		health:      pb.NewQdrantClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// Ping calls the Qdrant health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance if it is missing.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return &db.Error{Op: db.OpCollection, Err: err}
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}
	if dims <= 0 {
		return fmt.Errorf("qdrant: vector size must be positive")
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return &db.Error{Op: db.OpCollection, Err: fmt.Errorf("create %s: %w", s.collection, err)}
	}
	return nil
}

// Upsert writes points, waiting for the operation to be applied.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	out := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		out[i] = &pb.PointStruct{
			Id:      pointID(p.Key),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: toPayload(p.Payload),
		}
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         out,
	}); err != nil {
		return &db.Error{Op: db.OpUpsert, Err: fmt.Errorf("%d points: %w", len(points), err)}
	}
	return nil
}

// Scroll returns every point matching f, following page offsets until exhausted.
func (s *Store) Scroll(ctx context.Context, f db.Filter, pageSize int, withVectors bool) ([]Hit, error) {
	if pageSize <= 0 {
		pageSize = 256
	}
	limit := uint32(pageSize)
	req := &pb.ScrollPoints{
		CollectionName: s.collection,
		Filter:         toFilter(f),
		Limit:          &limit,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: withVectors}},
	}

	var hits []Hit
	for {
		resp, err := s.points.Scroll(ctx, req)
		if err != nil {
			return nil, &db.Error{Op: db.OpScroll, Err: err}
		}
		for _, p := range resp.GetResult() {
			hits = append(hits, Hit{
				Key:     p.GetId().GetUuid(),
				Vector:  p.GetVectors().GetVector().GetData(),
				Payload: fromPayload(p.GetPayload()),
			})
		}
		next := resp.GetNextPageOffset()
		if next == nil {
			return hits, nil
		}
		req.Offset = next
	}
}

// Search runs a filtered similarity query. Qdrant applies the filter during the
// HNSW traversal, so the result is never a post-filtered truncated list.
func (s *Store) Search(ctx context.Context, vector []float32, f db.Filter, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("qdrant: limit must be positive")
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Filter:         toFilter(f),
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		hits[i] = Hit{
			Key:     r.GetId().GetUuid(),
			Score:   float64(r.GetScore()),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return hits, nil
}

// Count returns the exact number of points matching f.
func (s *Store) Count(ctx context.Context, f db.Filter) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Filter:         toFilter(f),
		Exact:          &exact,
	})
	if err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: err}
	}
	return int(resp.GetResult().GetCount()), nil
}

func pointID(key string) *pb.PointId {
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{Uuid: uuid.NewSHA1(pointNamespace, []byte(key)).String()},
	}
}
