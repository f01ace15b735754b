package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ragware/docrag-mcp/pkg/types"
)

const (
	// EnvQdrantAddr selects the Qdrant gRPC address (e.g. "localhost:6334").
	// When unset, the server answers queries from SQLite instead.
	EnvQdrantAddr = "DOCRAG_QDRANT_ADDR"

	// EnvQdrantCollection overrides the collection name
	EnvQdrantCollection = "DOCRAG_QDRANT_COLLECTION"

	// DefaultCollection is the collection used when none is configured
	DefaultCollection = "docrag_chunks"
)

// pointsAPI is the subset of the Qdrant points service the index uses
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsAPI is the subset of the Qdrant collections service the index uses
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Point is a chunk embedding to be mirrored into the index
type Point struct {
	ChunkID int64
	Vector  []float32
	Source  string
}

// Index is the sole owner of all Qdrant operations
type Index struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New creates an Index connected to Qdrant at the given gRPC address
func New(addr, collection string) (*Index, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: dial qdrant %s: %w", addr, err)
	}
	return &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients creates an Index with injected service clients
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *Index {
	return &Index{
		points:      points,
		collections: collections,
		collection:  collection,
	}
}

// Close closes the underlying gRPC connection
func (ix *Index) Close() error {
	if ix.conn == nil {
		return nil
	}
	return ix.conn.Close()
}

// Collection returns the collection name the index operates on
func (ix *Index) Collection() string {
	return ix.collection
}

// EnsureCollection creates the collection if it doesn't exist
func (ix *Index) EnsureCollection(ctx context.Context, dims int) error {
	list, err := ix.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorindex: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == ix.collection {
			return nil
		}
	}

	_, err = ix.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: ix.collection,
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
		return fmt.Errorf("vectorindex: create collection %s: %w", ix.collection, err)
	}
	return nil
}

// DropCollection deletes the collection and everything in it
func (ix *Index) DropCollection(ctx context.Context) error {
	_, err := ix.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: ix.collection,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete collection %s: %w", ix.collection, err)
	}
	return nil
}

// pointID derives the stable UUID for a chunk. The same chunk always maps to
// the same point, so re-upserting after a re-ingest overwrites in place.
func pointID(chunkID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("chunk:%d", chunkID))).String()
}

// Upsert mirrors chunk embeddings into the index
func (ix *Index) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(p.ChunkID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*pb.Value{
				"chunk_id": {Kind: &pb.Value_IntegerValue{IntegerValue: p.ChunkID}},
				"source":   {Kind: &pb.Value_StringValue{StringValue: p.Source}},
			},
		}
	}

	wait := true
	_, err := ix.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: ix.collection,
		Wait:           &wait,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Delete removes the points for the given chunks
func (ix *Index) Delete(ctx context.Context, chunkIDs []int64) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	ids := make([]*pb.PointId, len(chunkIDs))
	for i, chunkID := range chunkIDs {
		ids[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(chunkID)}}
	}

	wait := true
	_, err := ix.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: ix.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: ids},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete %d points: %w", len(chunkIDs), err)
	}
	return nil
}

// Clear removes every point in the collection. An empty filter matches all
func (ix *Index) Clear(ctx context.Context) error {
	wait := true
	_, err := ix.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: ix.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: clear collection %s: %w", ix.collection, err)
	}
	return nil
}

// Query performs k-NN similarity search and returns chunk ids with scores.
// Points missing a chunk_id payload are dropped rather than surfaced.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int) ([]types.VectorHit, error) {
	if topK <= 0 {
		return []types.VectorHit{}, nil
	}

	resp, err := ix.points.Search(ctx, &pb.SearchPoints{
		CollectionName: ix.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	hits := make([]types.VectorHit, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		payload, ok := r.GetPayload()["chunk_id"]
		if !ok {
			continue
		}
		hits = append(hits, types.VectorHit{
			ChunkID: payload.GetIntegerValue(),
			Score:   float64(r.GetScore()),
		})
	}
	return hits, nil
}
