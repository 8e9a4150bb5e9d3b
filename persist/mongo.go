package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phanxgames/canopy"
)

// MongoOptions configures the mongo backend.
type MongoOptions struct {
	URI      string
	Database string
}

// Mongo stores blocks in a "blocks" collection keyed by board and id, and
// each board's z-order in an "orders" collection.
type Mongo struct {
	client *mongo.Client
	blocks *mongo.Collection
	orders *mongo.Collection
}

type blockDoc struct {
	Key       string    `bson:"_id"`
	Board     string    `bson:"board"`
	ID        string    `bson:"id"`
	Kind      string    `bson:"kind"`
	X         float64   `bson:"x"`
	Y         float64   `bson:"y"`
	Width     float64   `bson:"width"`
	Height    float64   `bson:"height"`
	Content   string    `bson:"content,omitempty"`
	Title     string    `bson:"title,omitempty"`
	Color     string    `bson:"color"`
	Locked    bool      `bson:"locked"`
	Hidden    bool      `bson:"hidden"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type orderDoc struct {
	Board string   `bson:"_id"`
	Order []string `bson:"order"`
}

// NewMongo connects to MongoDB and pings the primary.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Database == "" {
		opts.Database = "canopy"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("persist: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("persist: mongo ping: %w", err)
	}
	db := client.Database(opts.Database)
	return &Mongo{
		client: client,
		blocks: db.Collection("blocks"),
		orders: db.Collection("orders"),
	}, nil
}

func docKey(board string, id canopy.BlockID) string { return board + "/" + string(id) }

func toDoc(board string, b canopy.Block) blockDoc {
	return blockDoc{
		Key:       docKey(board, b.ID),
		Board:     board,
		ID:        string(b.ID),
		Kind:      string(b.Kind),
		X:         b.Position.X,
		Y:         b.Position.Y,
		Width:     b.Size.X,
		Height:    b.Size.Y,
		Content:   string(b.Content),
		Title:     b.Title,
		Color:     b.Color.Hex(),
		Locked:    b.Locked,
		Hidden:    b.Hidden,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (d blockDoc) block() (canopy.Block, error) {
	col, err := canopy.ParseColor(d.Color)
	if err != nil {
		return canopy.Block{}, err
	}
	b := canopy.Block{
		ID:        canopy.BlockID(d.ID),
		Kind:      canopy.Kind(d.Kind),
		Position:  canopy.Vec2{X: d.X, Y: d.Y},
		Size:      canopy.Vec2{X: d.Width, Y: d.Height},
		Title:     d.Title,
		Color:     col,
		Locked:    d.Locked,
		Hidden:    d.Hidden,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Content != "" {
		b.Content = []byte(d.Content)
	}
	return b, nil
}

func (m *Mongo) Load(ctx context.Context, board string) ([]canopy.Block, error) {
	if err := ValidateBoard(board); err != nil {
		return nil, err
	}
	var od orderDoc
	err := m.orders.FindOne(ctx, bson.M{"_id": board}).Decode(&od)
	hasOrder := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, err := m.blocks.Find(ctx, bson.M{"board": board})
	if err != nil {
		return nil, err
	}
	var docs []blockDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if !hasOrder && len(docs) == 0 {
		return nil, ErrNotFound
	}

	blocks := make(map[canopy.BlockID]canopy.Block, len(docs))
	for _, d := range docs {
		b, err := d.block()
		if err != nil {
			return nil, fmt.Errorf("persist: decode block %s: %w", d.ID, err)
		}
		blocks[b.ID] = b
	}
	order := make([]canopy.BlockID, len(od.Order))
	for i, id := range od.Order {
		order[i] = canopy.BlockID(id)
	}
	return arrange(blocks, order), nil
}

func (m *Mongo) Put(ctx context.Context, board string, b canopy.Block) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	doc := toDoc(board, b)
	_, err := m.blocks.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Delete(ctx context.Context, board string, ids ...canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(board, id)
	}
	_, err := m.blocks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}

func (m *Mongo) SaveOrder(ctx context.Context, board string, order []canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	doc := orderDoc{Board: board, Order: make([]string, len(order))}
	for i, id := range order {
		doc.Order[i] = string(id)
	}
	_, err := m.orders.ReplaceOne(ctx, bson.M{"_id": board}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Boards(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	fromOrders, err := m.orders.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, err
	}
	fromBlocks, err := m.blocks.Distinct(ctx, "board", bson.M{})
	if err != nil {
		return nil, err
	}
	for _, v := range append(fromOrders, fromBlocks...) {
		if s, ok := v.(string); ok {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Drop deletes every document belonging to board.
func (m *Mongo) Drop(ctx context.Context, board string) error {
	if _, err := m.blocks.DeleteMany(ctx, bson.M{"board": board}); err != nil {
		return err
	}
	_, err := m.orders.DeleteOne(ctx, bson.M{"_id": board})
	return err
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
